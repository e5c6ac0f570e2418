package models

import (
	"errors"
)

var (
	ErrNoOptions           = errors.New("no initialized model options")
	ErrNoTrainingData      = errors.New("no training windows")
	ErrTargetLenMismatch   = errors.New("target length does not match number of training windows")
	ErrNotFitted           = errors.New("model has not been fitted")
	ErrNoInferenceWindow   = errors.New("no window for inference")
	ErrWindowShapeMismatch = errors.New("window shape does not match fitted model")
	ErrNoSearchGrid        = errors.New("no hyperparameter candidates to search over")
)
