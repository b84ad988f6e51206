package kernel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "axon/kernel"

type instruments struct {
	ctx   context.Context
	attrs metric.MeasurementOption

	rounds     metric.Int64Counter
	steps      metric.Int64Counter
	faults     metric.Int64Counter
	deliveries metric.Int64Counter
	drops      metric.Int64Counter
	active     metric.Int64UpDownCounter
}

func newInstruments(mp metric.MeterProvider, run string) *instruments {
	meter := mp.Meter(instrumentationName)
	nm := noop.Meter{}

	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			logger.Warn("Failed to create metric", "name", name, "err", err)
			c, _ = nm.Int64Counter(name)
		}
		return c
	}

	active, err := meter.Int64UpDownCounter("axon.tasks.active",
		metric.WithDescription("Tasks currently registered with the scheduler"),
		metric.WithUnit("{task}"))
	if err != nil {
		logger.Warn("Failed to create metric", "name", "axon.tasks.active", "err", err)
		active, _ = nm.Int64UpDownCounter("axon.tasks.active")
	}

	return &instruments{
		ctx:        context.Background(),
		attrs:      metric.WithAttributes(attribute.String("axon.run", run)),
		rounds:     counter("axon.rounds", "Scheduling rounds executed", "{round}"),
		steps:      counter("axon.steps", "Task steps executed", "{step}"),
		faults:     counter("axon.faults", "Tasks terminated by a fault", "{task}"),
		deliveries: counter("axon.deliveries", "Messages delivered into boxes", "{message}"),
		drops:      counter("axon.drops", "Messages discarded by bounded boxes", "{message}"),
		active:     active,
	}
}
