// Package checkpoint owns the on-disk state of a training run's output
// directory. One directory holds one run:
//
//   - best_model.pt: opaque parameter snapshot written by the model itself.
//   - stats.yaml: {best_dev_metric, epoch} where epoch is the next epoch to run.
//
// Initialize maps the directory to one of three outcomes (fresh start,
// resume, or keep an existing empty directory). Every write goes through a
// temp file and a rename so a crash never leaves a truncated artifact behind.
package checkpoint
