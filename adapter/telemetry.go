package adapter

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	common "skywalking.apache.org/repo/goapi/collect/common/v3"
	logging "skywalking.apache.org/repo/goapi/collect/logging/v3"
)

// Sink receives marshaled telemetry records. A caller wires this to whatever
// transport it has (file, queue, gRPC stream); this package opens no
// connection of its own.
type Sink interface {
	Write(serviceName string, record []byte) error
}

// Reporter turns parse outcomes into SkyWalking logging-protocol records,
// grounded on the teacher's sniffdata.LogBuilder, scaled down to what parse
// telemetry needs: no trace context, no satellite-envelope batching, just a
// tagged LogData per outcome, marshaled and handed to a Sink. The gRPC
// reporter itself (plugins/handler/skywalking/reporter) is deliberately not
// reproduced here — spec.md §1 places live export out of this module's
// scope, so only the encoding step is kept.
type Reporter struct {
	serviceName     string
	serviceInstance string
	sink            Sink
}

// NewReporter builds a Reporter that labels every record with serviceName
// and serviceInstance and forwards the encoded bytes to sink.
func NewReporter(serviceName, serviceInstance string, sink Sink) *Reporter {
	return &Reporter{serviceName: serviceName, serviceInstance: serviceInstance, sink: sink}
}

// Outcome describes one dissector invocation worth reporting.
type Outcome struct {
	Timestamp int64
	Protocol  string
	Endpoint  string
	Body      string
	Tags      map[string]string
}

// Report encodes outcome as a logging.LogData record and writes it to the
// configured Sink. Errors from proto.Marshal are not expected in practice
// (LogData has no custom validation) but are still surfaced rather than
// swallowed, matching the teacher's habit of propagating marshal errors.
func (r *Reporter) Report(o Outcome) error {
	tags := &logging.LogTags{Data: make([]*common.KeyStringValuePair, 0, len(o.Tags)+1)}
	tags.Data = append(tags.Data, &common.KeyStringValuePair{Key: "protocol", Value: o.Protocol})
	for k, v := range o.Tags {
		tags.Data = append(tags.Data, &common.KeyStringValuePair{Key: k, Value: v})
	}

	record := &logging.LogData{
		Service:         r.serviceName,
		ServiceInstance: r.serviceInstance,
		Timestamp:       o.Timestamp,
		Endpoint:        o.Endpoint,
		Body: &logging.LogDataBody{
			Type: "LogDataBodyType_TEXT",
			Content: &logging.LogDataBody_Text{
				Text: &logging.TextLog{Text: o.Body},
			},
		},
		Tags: tags,
	}

	encoded, err := proto.Marshal(record)
	if err != nil {
		return fmt.Errorf("adapter: marshal log record: %w", err)
	}
	if r.sink == nil {
		return nil
	}
	return r.sink.Write(r.serviceName, encoded)
}

// MemorySink is a Sink that appends every record to an in-memory slice,
// useful for tests and for callers that batch before forwarding elsewhere.
type MemorySink struct {
	Records [][]byte
}

func (m *MemorySink) Write(_ string, record []byte) error {
	m.Records = append(m.Records, record)
	return nil
}
