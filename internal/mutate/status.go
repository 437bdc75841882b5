// Package mutate applies task changes optimistically: the cache changes at
// once and is put back if the server says no.
//
// Each status move is an Attempt that goes Pending -> Committed or
// Pending -> RolledBack. Attempts on one task carry increasing sequence
// numbers; when a completion arrives for an attempt that is no longer the
// newest for its task it is discarded, and a rollback restores the snapshot
// taken just before the newest attempt.
package mutate

import (
	"context"
	"strings"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/debuglog"
	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/statusutil"
	"tasklync-cli/internal/taskstore"
)

type Phase int

const (
	Idle Phase = iota
	Pending
	Committed
	RolledBack
	// Discarded is a completion that arrived after a newer attempt on the
	// same task was issued.
	Discarded
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled-back"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// RollbackMessage is shown when the server gives no reason.
const RollbackMessage = "Error updating task!"

// Attempt is one in-flight status move.
type Attempt struct {
	TaskID   string
	Seq      uint64
	From     model.Status
	To       model.Status
	Snapshot model.Task
}

// Notice tells the user a move was reverted. It must be acknowledged before
// anything else happens.
type Notice struct {
	TaskID  string
	Title   string
	From    model.Status
	To      model.Status
	Message string
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Tracker owns the per-task sequence counters and in-flight attempts.
type Tracker struct {
	store    *taskstore.Store
	notifier Notifier
	log      *debuglog.Logger

	seq      map[string]uint64
	inflight map[string]Attempt
}

// NewTracker also registers the tracker as store's overlay, so a reload that
// lands while a move is pending keeps showing the move's target.
func NewTracker(store *taskstore.Store, notifier Notifier, log *debuglog.Logger) *Tracker {
	t := &Tracker{
		store:    store,
		notifier: notifier,
		log:      log,
		seq:      map[string]uint64{},
		inflight: map[string]Attempt{},
	}
	store.SetOverlay(t.pending)
	return t
}

// SetNotifier replaces the receiver of rollback notices.
func (t *Tracker) SetNotifier(n Notifier) { t.notifier = n }

func (t *Tracker) pending(taskID string) (model.Status, bool) {
	a, ok := t.inflight[taskID]
	return a.To, ok
}

// Reset forgets in-flight attempts. Their completions are discarded when they
// arrive.
func (t *Tracker) Reset() {
	for id := range t.inflight {
		t.seq[id]++
	}
	t.inflight = map[string]Attempt{}
}

// InFlight reports whether taskID has an unsettled attempt.
func (t *Tracker) InFlight(taskID string) bool {
	_, ok := t.inflight[strings.TrimSpace(taskID)]
	return ok
}

// Begin applies the move to the cache and returns the attempt to settle once
// the server answers. ok is false when the task is already in column to: no
// attempt is made and nothing changes.
func (t *Tracker) Begin(taskID string, to model.Status) (a Attempt, ok bool, err error) {
	taskID = strings.TrimSpace(taskID)
	to, err = statusutil.NormalizeStatus(string(to))
	if err != nil {
		return Attempt{}, false, ErrInvalidStatus
	}
	cur, found := t.store.Get(taskID)
	if !found {
		return Attempt{}, false, NotFoundError{Kind: "task", ID: taskID}
	}
	from := derive.ColumnOf(cur)
	if from == to {
		return Attempt{}, false, nil
	}

	t.seq[taskID]++
	a = Attempt{TaskID: taskID, Seq: t.seq[taskID], From: from, To: to, Snapshot: cur}
	t.store.SetStatus(taskID, to)
	t.inflight[taskID] = a
	t.log.Printf("mutate begin task=%s seq=%d %s->%s", taskID, a.Seq, from, to)
	return a, true, nil
}

// Settle applies the server's answer to a. A nil err commits; otherwise the
// cache is restored from a's snapshot and the notifier is told. Completions
// for superseded attempts are discarded.
func (t *Tracker) Settle(a Attempt, err error) Phase {
	if t.seq[a.TaskID] != a.Seq {
		t.log.Printf("mutate discard task=%s seq=%d newest=%d", a.TaskID, a.Seq, t.seq[a.TaskID])
		return Discarded
	}
	delete(t.inflight, a.TaskID)
	if err == nil {
		// A reload may have replaced the optimistic value meanwhile.
		if cur, ok := t.store.Get(a.TaskID); ok && cur.Status != a.To {
			t.store.SetStatus(a.TaskID, a.To)
		}
		t.log.Printf("mutate commit task=%s seq=%d", a.TaskID, a.Seq)
		return Committed
	}

	t.store.Restore(a.Snapshot)
	n := Notice{
		TaskID:  a.TaskID,
		Title:   a.Snapshot.Title,
		From:    derive.ColumnOf(a.Snapshot),
		To:      a.To,
		Message: api.Message(err, RollbackMessage),
	}
	t.log.Printf("mutate rollback task=%s seq=%d err=%v", a.TaskID, a.Seq, err)
	if t.notifier != nil {
		t.notifier.Notify(n)
	}
	return RolledBack
}

// Send performs the network call for a.
func Send(ctx context.Context, backend api.Backend, a Attempt) error {
	to := a.To
	return backend.UpdateTask(ctx, a.TaskID, api.TaskPatch{Status: &to})
}

// Move runs a whole attempt synchronously. It returns Idle for a no-op and a
// *RolledBackError when the server rejected the move.
func (t *Tracker) Move(ctx context.Context, backend api.Backend, taskID string, to model.Status) (Phase, error) {
	a, ok, err := t.Begin(taskID, to)
	if err != nil {
		return Idle, err
	}
	if !ok {
		return Idle, nil
	}
	sendErr := Send(ctx, backend, a)
	phase := t.Settle(a, sendErr)
	if phase == RolledBack {
		return phase, &RolledBackError{
			Notice: Notice{TaskID: a.TaskID, Title: a.Snapshot.Title, From: a.From, To: a.To, Message: api.Message(sendErr, RollbackMessage)},
			Err:    sendErr,
		}
	}
	return phase, nil
}
