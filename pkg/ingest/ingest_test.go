package ingest

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predatorx7/logshipper/pkg/broker"
	"github.com/predatorx7/logshipper/pkg/model"
)

// MockPublisher records published lines and fails for the listed severities.
type MockPublisher struct {
	Published []model.Line
	FailFor   map[model.Severity]error
}

func (m *MockPublisher) Publish(ctx context.Context, line model.Line) error {
	rec, err := model.ParseLine(string(line))
	if err != nil {
		return err
	}
	if err := m.FailFor[rec.Severity]; err != nil {
		return err
	}
	m.Published = append(m.Published, line)
	return nil
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestIngester(p broker.Publisher) *Ingester {
	i := NewIngester(p)
	i.Now = func() time.Time { return fixedNow }
	return i
}

func TestIngest_Debug(t *testing.T) {
	pub := &MockPublisher{}
	res := newTestIngester(pub).Ingest(context.Background(), map[string][]string{"debug": {"foo"}})

	want := model.Format(model.SeverityDebug, "foo", fixedNow)
	assert.Equal(t, map[string]string{"debug": strconv.Itoa(len(want))}, res.Success)
	assert.Empty(t, res.Errors)
	assert.Equal(t, OutcomeSuccess, res.Outcome())
	assert.Equal(t, []model.Line{want}, pub.Published)
}

func TestIngest_NoRecognizedFields(t *testing.T) {
	pub := &MockPublisher{}
	res := newTestIngester(pub).Ingest(context.Background(), map[string][]string{
		"fatal": {"x"},
		"DEBUG": {"y"},
		"info":  {},
	})

	assert.Equal(t, OutcomeBadRequest, res.Outcome())
	assert.Empty(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Empty(t, pub.Published)
}

func TestIngest_AllSubsetsPartitioned(t *testing.T) {
	failing := errors.New("broker: channel closed")

	for mask := 0; mask < 1<<len(model.Severities); mask++ {
		for failMask := 0; failMask < 1<<len(model.Severities); failMask++ {
			fields := map[string][]string{"unknown": {"ignored"}}
			pub := &MockPublisher{FailFor: map[model.Severity]error{}}
			for bit, sev := range model.Severities {
				if mask&(1<<bit) != 0 {
					fields[sev.String()] = []string{"msg " + sev.String()}
				}
				if failMask&(1<<bit) != 0 {
					pub.FailFor[sev] = failing
				}
			}

			res := newTestIngester(pub).Ingest(context.Background(), fields)

			for bit, sev := range model.Severities {
				name := sev.String()
				_, inSuccess := res.Success[name]
				_, inErrors := res.Errors[name]
				present := mask&(1<<bit) != 0
				fails := failMask&(1<<bit) != 0

				require.False(t, inSuccess && inErrors, "%s in both maps", name)
				assert.Equal(t, present && !fails, inSuccess, "mask=%b fail=%b sev=%s", mask, failMask, name)
				assert.Equal(t, present && fails, inErrors, "mask=%b fail=%b sev=%s", mask, failMask, name)
				if inErrors {
					assert.Equal(t, failing.Error(), res.Errors[name])
				}
			}

			switch {
			case mask == 0:
				assert.Equal(t, OutcomeBadRequest, res.Outcome())
			case mask&failMask != 0:
				assert.Equal(t, OutcomePartial, res.Outcome())
			default:
				assert.Equal(t, OutcomeSuccess, res.Outcome())
			}
		}
	}
}

func TestIngest_ClosedBroker(t *testing.T) {
	b := broker.NewMemoryBroker()
	b.Close()

	res := newTestIngester(b).Ingest(context.Background(), map[string][]string{
		"info":  {"a"},
		"error": {"b"},
	})

	assert.Equal(t, OutcomePartial, res.Outcome())
	assert.Empty(t, res.Success)
	assert.Equal(t, broker.ErrClosed.Error(), res.Errors["info"])
	assert.Equal(t, broker.ErrClosed.Error(), res.Errors["error"])
}

func TestIngest_UsesFirstValue(t *testing.T) {
	pub := &MockPublisher{}
	newTestIngester(pub).Ingest(context.Background(), map[string][]string{"warning": {"first", "second"}})

	require.Len(t, pub.Published, 1)
	rec, err := model.ParseLine(string(pub.Published[0]))
	require.NoError(t, err)
	assert.Equal(t, "first", rec.Message)
}

func TestIngest_CancelledContext(t *testing.T) {
	b := broker.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestIngester(b).Ingest(ctx, map[string][]string{"debug": {"gone"}})

	assert.Equal(t, OutcomePartial, res.Outcome())
	assert.Empty(t, res.Success)
	assert.Equal(t, map[string]string{"debug": context.Canceled.Error()}, res.Errors)
	assert.Zero(t, b.Len())
}
