// Package linear provides a small logistic regression model, an SGD optimizer
// and binary cross entropy loss implementing the trainer collaborator
// interfaces. They let the CLI train end to end without an external numerical
// backend.
package linear
