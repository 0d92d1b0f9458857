package stream

import (
	"github.com/ardnew/isosim/usb"
)

// Option configures an Orchestrator using the functional options pattern.
type Option func(*options)

// options holds the pieces an Orchestrator assembles its workers from.
type options struct {
	id              string
	address         uint8
	interval        uint8
	audioDataSize   int
	clock           Clock
	generator       Generator
	sink            Sink
	producerFactory ProducerFactory
	consumerFactory ConsumerFactory
}

// WithID sets the simulation ID used in logs and metric labels.
// Defaults to a random UUID.
func WithID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.id = id
		}
	}
}

// WithEndpointAddress sets the streaming endpoint address. Defaults to EP1 IN.
func WithEndpointAddress(address uint8) Option {
	return func(o *options) {
		o.address = address
	}
}

// WithInterval sets the endpoint bInterval; the consumer ticks every
// 2^(interval-1) microframes. Defaults to 1 (every microframe).
func WithInterval(interval uint8) Option {
	return func(o *options) {
		o.interval = interval
	}
}

// WithAudioDataSize sets the audio portion of each generated microframe.
// Ignored when a Generator is supplied.
func WithAudioDataSize(n int) Option {
	return func(o *options) {
		o.audioDataSize = n
	}
}

// WithClock substitutes the consumer's time source.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithGenerator substitutes the producer's payload source.
func WithGenerator(g Generator) Option {
	return func(o *options) {
		if g != nil {
			o.generator = g
		}
	}
}

// WithSink attaches an observer to every consumer tick.
func WithSink(s Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithProducerFactory substitutes the Producer implementation.
func WithProducerFactory(f ProducerFactory) Option {
	return func(o *options) {
		if f != nil {
			o.producerFactory = f
		}
	}
}

// WithConsumerFactory substitutes the Consumer implementation.
func WithConsumerFactory(f ConsumerFactory) Option {
	return func(o *options) {
		if f != nil {
			o.consumerFactory = f
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{
		address:         usb.DefaultEndpointAddress,
		interval:        1,
		audioDataSize:   usb.DefaultAudioDataSize,
		clock:           SystemClock{},
		producerFactory: NewProducer,
		consumerFactory: NewConsumer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
