package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/hrnotify/internal/domain"
)

// fakeTransport records deliveries and fails or panics for chosen recipients.
type fakeTransport struct {
	mu        sync.Mutex
	delivered []string
	fail      map[string]bool
	panicFor  string
	delay     time.Duration

	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeTransport) Deliver(ctx context.Context, recipient, subject, body string) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.delivered = append(f.delivered, recipient)
	f.mu.Unlock()

	if recipient == f.panicFor {
		panic("smtp exploded")
	}
	if f.fail[recipient] {
		return errors.New("mailbox unavailable")
	}
	return nil
}

func makeJobs(n int) []domain.NotificationJob {
	jobs := make([]domain.NotificationJob, n)
	for i := range jobs {
		jobs[i] = domain.NotificationJob{
			Recipient: fmt.Sprintf("user%d@x", i),
			Subject:   "s",
			Body:      "b",
		}
	}
	return jobs
}

func intPtr(v int) *int { return &v }

func TestEngine_Dispatch(t *testing.T) {
	testCases := []struct {
		name        string
		jobs        int
		maxParallel int
		testLimit   *int
		fail        map[string]bool
		want        domain.DispatchTally
	}{
		{name: "no jobs", jobs: 0, maxParallel: 4, want: domain.DispatchTally{}},
		{name: "no jobs with limit", jobs: 0, maxParallel: 4, testLimit: intPtr(3), want: domain.DispatchTally{}},
		{name: "single success", jobs: 1, maxParallel: 4, want: domain.DispatchTally{Succeeded: 1}},
		{
			name:        "single failure",
			jobs:        1,
			maxParallel: 4,
			fail:        map[string]bool{"user0@x": true},
			want:        domain.DispatchTally{Failed: 1},
		},
		{
			name:        "mixed outcomes",
			jobs:        10,
			maxParallel: 3,
			fail:        map[string]bool{"user2@x": true, "user7@x": true},
			want:        domain.DispatchTally{Succeeded: 8, Failed: 2},
		},
		{name: "limit truncates", jobs: 10, maxParallel: 4, testLimit: intPtr(3), want: domain.DispatchTally{Succeeded: 3}},
		{name: "limit larger than jobs", jobs: 2, maxParallel: 4, testLimit: intPtr(5), want: domain.DispatchTally{Succeeded: 2}},
		{name: "zero limit sends nothing", jobs: 4, maxParallel: 4, testLimit: intPtr(0), want: domain.DispatchTally{}},
		{name: "more workers than jobs", jobs: 2, maxParallel: 50, want: domain.DispatchTally{Succeeded: 2}},
		{name: "invalid worker count still delivers", jobs: 3, maxParallel: 0, want: domain.DispatchTally{Succeeded: 3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{fail: tc.fail}
			engine := NewEngine(transport)

			got := engine.Dispatch(context.Background(), makeJobs(tc.jobs), tc.maxParallel, tc.testLimit)

			assert.Equal(t, tc.want, got)
			assert.Len(t, transport.delivered, got.Attempted())
		})
	}
}

func TestEngine_TruncatesToPrefix(t *testing.T) {
	transport := &fakeTransport{}
	engine := NewEngine(transport)
	jobs := makeJobs(20)

	report := engine.Run(context.Background(), jobs, 8, intPtr(5))

	require.Len(t, report.Outcomes, 5)
	assert.ElementsMatch(t, []string{"user0@x", "user1@x", "user2@x", "user3@x", "user4@x"}, transport.delivered)
	for i, o := range report.Outcomes {
		assert.Equal(t, jobs[i].Recipient, o.Recipient)
	}
}

func TestEngine_OutcomesFollowJobOrder(t *testing.T) {
	transport := &fakeTransport{fail: map[string]bool{"user1@x": true}}
	report := NewEngine(transport).Run(context.Background(), makeJobs(4), 4, nil)

	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, domain.Succeeded("user0@x"), report.Outcomes[0])
	assert.Equal(t, domain.OutcomeFailed, report.Outcomes[1].Status)
	assert.Equal(t, "mailbox unavailable", report.Outcomes[1].Reason)
	assert.Equal(t, domain.DispatchTally{Succeeded: 3, Failed: 1}, report.Tally)
}

func TestEngine_PanicIsIsolated(t *testing.T) {
	transport := &fakeTransport{panicFor: "user3@x"}
	engine := NewEngine(transport)

	var got domain.DispatchTally
	require.NotPanics(t, func() {
		got = engine.Dispatch(context.Background(), makeJobs(6), 2, nil)
	})
	assert.Equal(t, domain.DispatchTally{Succeeded: 5, Failed: 1}, got)
}

func TestEngine_BoundsConcurrency(t *testing.T) {
	transport := &fakeTransport{delay: 20 * time.Millisecond}
	engine := NewEngine(transport)

	got := engine.Dispatch(context.Background(), makeJobs(12), 3, nil)

	assert.Equal(t, 12, got.Succeeded)
	assert.LessOrEqual(t, int(transport.maxActive.Load()), 3)
	assert.Greater(t, int(transport.maxActive.Load()), 1)
}
