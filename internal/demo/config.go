package demo

import (
	"errors"
	"fmt"
	"time"

	"github.com/aixgo-dev/amas/mailbox"
)

// Config describes the demo system.
type Config struct {
	// Sender mails Message to Receiver every Interval
	Sender   string `yaml:"sender"`
	Receiver string `yaml:"receiver"`
	Message  string `yaml:"message"`

	Interval time.Duration `yaml:"interval"`

	// QuitAfter is how long the observer waits before broadcasting Signal
	QuitAfter time.Duration `yaml:"quit_after"`
	Signal    string        `yaml:"signal"`
}

// DefaultConfig returns the foo/bar setup.
func DefaultConfig() Config {
	return Config{
		Sender:    "foo",
		Receiver:  "bar",
		Message:   "hello",
		Interval:  time.Second,
		QuitAfter: 5 * time.Second,
		Signal:    "quit",
	}
}

// Validate checks the demo section.
func (c Config) Validate() error {
	var errs []error

	addrs := []struct{ field, addr string }{
		{"demo.sender", c.Sender},
		{"demo.receiver", c.Receiver},
	}
	for _, f := range addrs {
		switch f.addr {
		case "":
			errs = append(errs, fmt.Errorf("%s must not be empty", f.field))
		case mailbox.ObserverAddress:
			errs = append(errs, fmt.Errorf("%s must not be %s", f.field, mailbox.ObserverAddress))
		}
	}
	if c.Sender != "" && c.Sender == c.Receiver {
		errs = append(errs, fmt.Errorf("demo.sender and demo.receiver must differ, both are %q", c.Sender))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("demo.interval %s must be positive", c.Interval))
	}
	if c.QuitAfter <= 0 {
		errs = append(errs, fmt.Errorf("demo.quit_after %s must be positive", c.QuitAfter))
	}
	if c.Signal == "" {
		errs = append(errs, errors.New("demo.signal must not be empty"))
	}

	return errors.Join(errs...)
}
