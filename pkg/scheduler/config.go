package scheduler

import "time"

type Configuration struct {
	Workers   uint `validate:"gte=1,lte=1000"`
	QueueSize uint `yaml:"queue-size" validate:"gte=1"`
	// how long recording and notifying an outcome may take
	SinkTimeout time.Duration `yaml:"sink-timeout"`
	// unit of the interval schedule frequency, one minute unless set
	IntervalUnit time.Duration `yaml:"-"`
}

func (c *Configuration) setDefaults() {
	if c.Workers == 0 {
		c.Workers = 20
	}
	if c.QueueSize == 0 {
		c.QueueSize = 100
	}
	if c.SinkTimeout == 0 {
		c.SinkTimeout = 10 * time.Second
	}
	if c.IntervalUnit == 0 {
		c.IntervalUnit = time.Minute
	}
}
