package scheduler

import "github.com/gen2brain/beeep"

type Notifier interface {
	Notify(title, message string) error
}

// Desktop shows notifications through the OS notification service.
type Desktop struct{}

func (Desktop) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string) error

func (f NotifierFunc) Notify(title, message string) error {
	return f(title, message)
}
