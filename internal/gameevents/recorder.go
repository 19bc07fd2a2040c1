package gameevents

import (
	"context"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"

	"github.com/cuihairu/keeperhub/internal/analytics/mq"
	eventsgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/events"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Event type discriminators sent by game clients.
const (
	RetiredConquered = "retiredConquered"
	RetiredLoaded    = "retiredLoaded"
	Turn             = "turn"
	BoardMessage     = "boardMessage"
	CampaignStarted  = "campaignStarted"
	SingleStarted    = "singleStarted"
)

// Types lists every event type the recorder stores.
var Types = []string{RetiredConquered, RetiredLoaded, Turn, BoardMessage, CampaignStarted, SingleStarted}

// Store appends one event row.
type Store interface {
	Insert(ctx context.Context, rec any) error
}

// Counter observes stored events.
type Counter interface {
	EventRecorded(ctx context.Context, eventType string)
}

// InvalidError rejects a payload of a known type that fails its schema.
type InvalidError struct {
	Type    string
	Reasons []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid %s event: %s", e.Type, strings.Join(e.Reasons, "; "))
}

// Recorder maps client key/value payloads onto event rows.
type Recorder struct {
	store   Store
	queue   mq.Queue
	schemas map[string]*gojsonschema.Schema
	counter Counter
	now     func() time.Time
	publish func(func())
}

func NewRecorder(store Store, queue mq.Queue) (*Recorder, error) {
	if queue == nil {
		queue = mq.NewNoop()
	}
	schemas := make(map[string]*gojsonschema.Schema, len(Types))
	for _, t := range Types {
		data, err := schemaFS.ReadFile("schemas/" + t + ".json")
		if err != nil {
			return nil, err
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", t, err)
		}
		schemas[t] = s
	}
	return &Recorder{store: store, queue: queue, schemas: schemas, now: time.Now, publish: threading.GoSafe}, nil
}

// SetCounter installs c to observe every stored event.
func (r *Recorder) SetCounter(c Counter) { r.counter = c }

// Record stores one event of eventType. Unknown types are ignored and report
// recorded=false with a nil error.
func (r *Recorder) Record(ctx context.Context, eventType string, fields map[string]string) (recorded bool, err error) {
	schema, ok := r.schemas[eventType]
	if !ok {
		logx.WithContext(ctx).Infof("ignoring event type %q", eventType)
		return false, nil
	}
	if err := validate(schema, eventType, fields); err != nil {
		return false, err
	}
	row, err := buildRow(eventType, fields)
	if err != nil {
		return false, err
	}
	if err := r.store.Insert(ctx, row); err != nil {
		return false, fmt.Errorf("insert %s event: %w", eventType, err)
	}
	if r.counter != nil {
		r.counter.EventRecorded(ctx, eventType)
	}
	r.fanOut(ctx, eventType, fields)
	return true, nil
}

func validate(schema *gojsonschema.Schema, eventType string, fields map[string]string) error {
	doc := make(map[string]any, len(fields))
	for k, v := range fields {
		doc[k] = v
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	ie := &InvalidError{Type: eventType}
	for i, e := range res.Errors() {
		if i >= 5 {
			break
		}
		ie.Reasons = append(ie.Reasons, e.String())
	}
	return ie
}

func buildRow(eventType string, f map[string]string) (any, error) {
	ints := intReader{eventType: eventType, fields: f}
	var row any
	switch eventType {
	case RetiredConquered:
		row = &eventsgorm.RetiredConquered{GameID: f["gameId"], RetiredID: f["retiredId"], PlayerName: f["playerName"]}
	case RetiredLoaded:
		row = &eventsgorm.RetiredLoaded{GameID: f["gameId"], RetiredID: f["retiredId"], PlayerName: f["playerName"]}
	case Turn:
		row = &eventsgorm.Turn{GameID: f["gameId"], Turn: ints.get("turn")}
	case BoardMessage:
		row = &eventsgorm.Message{GameID: f["gameId"], BoardID: ints.get("boardId"), Author: f["author"], Text: f["text"]}
	case CampaignStarted:
		row = &eventsgorm.CampaignStarted{
			GameID:     f["gameId"],
			Main:       ints.get("main"),
			Lesser:     ints.get("lesser"),
			Allies:     ints.get("allies"),
			Retired:    ints.get("retired"),
			InstallID:  f["installId"],
			GameType:   f["game_type"],
			PlayerRole: f["player_role"],
		}
	case SingleStarted:
		row = &eventsgorm.SingleStarted{GameID: f["gameId"], InstallID: f["installId"]}
	default:
		return nil, fmt.Errorf("no row for event type %q", eventType)
	}
	if ints.err != nil {
		return nil, ints.err
	}
	return row, nil
}

// intReader converts schema-checked digit strings, keeping the first
// out-of-range failure.
type intReader struct {
	eventType string
	fields    map[string]string
	err       error
}

func (r *intReader) get(name string) int {
	n, err := strconv.Atoi(r.fields[name])
	if err != nil && r.err == nil {
		r.err = &InvalidError{Type: r.eventType, Reasons: []string{fmt.Sprintf("%s: %v", name, err)}}
	}
	return n
}

func (r *Recorder) fanOut(ctx context.Context, eventType string, fields map[string]string) {
	evt := mq.Event{Type: eventType, GameID: fields["gameId"], Fields: make(map[string]string, len(fields)), ReceivedAt: r.now().UTC()}
	for k, v := range fields {
		if k != "eventType" {
			evt.Fields[k] = v
		}
	}
	pctx := context.WithoutCancel(ctx)
	r.publish(func() {
		ctx, cancel := context.WithTimeout(pctx, 2*time.Second)
		defer cancel()
		if err := r.queue.PublishEvent(ctx, evt); err != nil {
			logx.WithContext(ctx).Errorf("publish %s event: %v", eventType, err)
		}
	})
}
