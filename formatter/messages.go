package formatter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/google/uuid"

	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/result"
)

func init() {
	Register("messages", "cucumber-messages envelope stream", NewMessages)
}

// Messages emits newline-delimited cucumber-messages envelopes for
// tooling interop: per-attempt TestCaseStarted/TestCaseFinished pairs
// plus Attachment envelopes (inline or URL-referenced).
type Messages struct {
	out io.Writer

	// current attempt per in-flight scenario
	caseIDs    map[*feature.Scenario]string
	startedIDs map[*feature.Scenario]string
}

// NewMessages creates the envelope stream formatter.
func NewMessages(out io.Writer) Formatter {
	return &Messages{
		out:        out,
		caseIDs:    make(map[*feature.Scenario]string),
		startedIDs: make(map[*feature.Scenario]string),
	}
}

func (f *Messages) emit(env *messages.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	fmt.Fprintf(f.out, "%s\n", data)
}

func timestamp(t time.Time) *messages.Timestamp {
	return &messages.Timestamp{Seconds: t.Unix(), Nanos: int64(t.Nanosecond())}
}

func (f *Messages) RunStarted(meta RunMeta) {
	f.emit(&messages.Envelope{
		TestRunStarted: &messages.TestRunStarted{Timestamp: timestamp(meta.StartedAt)},
	})
}

func (f *Messages) FeatureStarted(ft *feature.Feature) {}

func (f *Messages) ScenarioStarted(sc *feature.Scenario, attempt int) {
	caseID, ok := f.caseIDs[sc]
	if !ok {
		caseID = uuid.NewString()
		f.caseIDs[sc] = caseID
	}
	startedID := uuid.NewString()
	f.startedIDs[sc] = startedID

	f.emit(&messages.Envelope{
		TestCaseStarted: &messages.TestCaseStarted{
			Id:         startedID,
			TestCaseId: caseID,
			Attempt:    int64(attempt),
			Timestamp:  timestamp(time.Now()),
		},
	})
}

func (f *Messages) StepFinished(sc *feature.Scenario, step result.StepResult) {
	startedID := f.startedIDs[sc]
	for _, a := range step.Attachments {
		att := &messages.Attachment{
			FileName:          a.Name,
			MediaType:         a.MediaType,
			TestCaseStartedId: startedID,
		}
		switch {
		case a.URL != "":
			// External attachment: reference only, no payload.
			att.Url = a.URL
			att.ContentEncoding = messages.AttachmentContentEncoding_IDENTITY
		case isText(a.MediaType):
			att.Body = string(a.Body)
			att.ContentEncoding = messages.AttachmentContentEncoding_IDENTITY
		default:
			att.Body = base64.StdEncoding.EncodeToString(a.Body)
			att.ContentEncoding = messages.AttachmentContentEncoding_BASE64
		}
		f.emit(&messages.Envelope{Attachment: att})
	}
}

func (f *Messages) ScenarioFinished(res *result.ScenarioResult, attempt int, willRetry bool) {
	var startedID string
	for sc, id := range f.startedIDs {
		if sc.Name == res.Name && sc.URI == res.URI && sc.Line == res.Line {
			startedID = id
			if !willRetry {
				delete(f.startedIDs, sc)
				delete(f.caseIDs, sc)
			}
			break
		}
	}

	f.emit(&messages.Envelope{
		TestCaseFinished: &messages.TestCaseFinished{
			TestCaseStartedId: startedID,
			WillBeRetried:     willRetry,
			Timestamp:         timestamp(time.Now()),
		},
	})
}

func (f *Messages) FeatureFinished(res *result.FeatureResult) {}

func (f *Messages) RunFinished(res *result.RunResult) {
	f.emit(&messages.Envelope{
		TestRunFinished: &messages.TestRunFinished{
			Success:   res.Ok(),
			Timestamp: timestamp(res.StartedAt.Add(res.Duration)),
		},
	})
}

func isText(mediaType string) bool {
	switch mediaType {
	case "text/plain", "text/html", "application/json", "text/x-log":
		return true
	}
	return len(mediaType) > 5 && mediaType[:5] == "text/"
}
