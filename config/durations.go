package config

import "time"

// ReservationTTL is how long a locked slot stays claimed before it no longer counts toward capacity.
func (c *Config) ReservationTTL() time.Duration {
	return time.Duration(c.Booking.ReservationTTLSeconds) * time.Second
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.Booking.IdempotencyTTLSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Booking.SweepIntervalSeconds) * time.Second
}

func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.Booking.PublishTimeoutMillis) * time.Millisecond
}
