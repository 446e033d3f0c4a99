// Package trainer drives a fixed train/evaluate epoch loop with patience based
// early stopping on top of opaque model, optimizer, loss and data
// collaborators. It is structured into small files by concern:
//
//   - types.go: collaborator interfaces (Model, Optimizer, LossFunc, DataSource, Observer).
//   - config.go: Config, defaults and validation.
//   - errors.go: ResourceExhausted error kind and the failure objective.
//   - driver.go: Driver, Run and the epoch state machine.
//   - phase.go: the training and evaluation passes over a data source.
//   - status.go: mutex-guarded status snapshot for the HTTP layer.
//
// Resumable state (best metric, next epoch, best parameters) is persisted via
// internal/checkpoint after every epoch, so a restarted run continues at the
// first epoch that did not complete.
package trainer
