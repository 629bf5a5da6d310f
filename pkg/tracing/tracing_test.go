package tracing

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit(t *testing.T) {
	Convey("Given no collector endpoint", t, func() {
		shutdown, err := Init(context.Background(), Config{ServiceName: "test"})

		Convey("Then tracing stays disabled without error", func() {
			So(err, ShouldBeNil)
			So(shutdown(context.Background()), ShouldBeNil)
			So(Tracer("unit"), ShouldNotBeNil)
		})
	})
}

func TestSpanHelpers(t *testing.T) {
	Convey("Given a recording tracer", t, func() {
		rec := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
		tracer := tp.Tracer("unit")

		Convey("When an error is recorded", func() {
			_, span := tracer.Start(context.Background(), "op")
			RecordError(span, errors.New("bad row"), ErrorTypeParse, false)
			span.End()

			Convey("Then the span carries error status and event", func() {
				ended := rec.Ended()
				So(ended, ShouldHaveLength, 1)
				So(ended[0].Status().Code, ShouldEqual, codes.Error)
				So(ended[0].Events(), ShouldHaveLength, 1)
			})
		})

		Convey("When a span succeeds", func() {
			_, span := tracer.Start(context.Background(), "op")
			SetSpanOk(span)
			span.End()

			Convey("Then its status is ok", func() {
				So(rec.Ended()[0].Status().Code, ShouldEqual, codes.Ok)
			})
		})
	})
}
