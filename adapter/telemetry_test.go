package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	logging "skywalking.apache.org/repo/goapi/collect/logging/v3"
)

func TestReporterEncodesOutcomeToSink(t *testing.T) {
	sink := &MemorySink{}
	r := NewReporter("dissect", "worker-0", sink)

	err := r.Report(Outcome{
		Timestamp: 1000,
		Protocol:  "dns",
		Endpoint:  "udp/53",
		Body:      "query example.com",
		Tags:      map[string]string{"qtype": "A"},
	})
	require.NoError(t, err)
	require.Len(t, sink.Records, 1)

	var decoded logging.LogData
	require.NoError(t, proto.Unmarshal(sink.Records[0], &decoded))
	assert.Equal(t, "dissect", decoded.Service)
	assert.Equal(t, "worker-0", decoded.ServiceInstance)
	assert.Equal(t, int64(1000), decoded.Timestamp)
	assert.Equal(t, "udp/53", decoded.Endpoint)

	found := false
	for _, tag := range decoded.Tags.Data {
		if tag.Key == "protocol" {
			assert.Equal(t, "dns", tag.Value)
			found = true
		}
	}
	assert.True(t, found)
}

func TestReporterNilSinkIsNoop(t *testing.T) {
	r := NewReporter("dissect", "worker-0", nil)
	err := r.Report(Outcome{Protocol: "arp"})
	assert.NoError(t, err)
}
