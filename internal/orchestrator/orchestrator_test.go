package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vpn-cli/vpnctl/internal/client"
	"github.com/vpn-cli/vpnctl/internal/domain"
)

// fakeAdapter scripts Status results and counts lifecycle calls.
type fakeAdapter struct {
	statusResults []bool
	statusCalls   int
	statusErr     error

	connectErr   error
	connectCalls int

	configuredHost string
}

func (f *fakeAdapter) Kind() domain.ProviderKind { return domain.ProviderCisco }
func (f *fakeAdapter) Open() error               { return nil }
func (f *fakeAdapter) Terminate() error          { return nil }

func (f *fakeAdapter) SetConfig(host, username, secret string) {
	f.configuredHost = host
}

func (f *fakeAdapter) Connect(context.Context) error {
	f.connectCalls++
	return f.connectErr
}

func (f *fakeAdapter) Disconnect(context.Context) error { return nil }

func (f *fakeAdapter) Status(context.Context) (bool, error) {
	defer func() { f.statusCalls++ }()
	if f.statusErr != nil {
		return false, f.statusErr
	}
	if f.statusCalls < len(f.statusResults) {
		return f.statusResults[f.statusCalls], nil
	}
	if len(f.statusResults) == 0 {
		return false, nil
	}
	return f.statusResults[len(f.statusResults)-1], nil
}

type fakeProber struct {
	ready bool
}

func (p *fakeProber) IsReady(context.Context) bool { return p.ready }

func testProfile() *domain.Profile {
	return &domain.Profile{
		Name:     "office",
		Host:     "vpn.example.com",
		Username: "alice",
		Secret:   "s3cret",
		Provider: domain.ProviderCisco,
	}
}

func traceOrchestrator(adapter client.Adapter, prober Prober, cfg Config) (*Orchestrator, *[]State) {
	o := New(adapter, prober, cfg, nil)
	o.sleep = func(time.Duration) {}
	trace := &[]State{}
	o.OnTransition(func(s State) { *trace = append(*trace, s) })
	return o, trace
}

func statesEqual(got []State, want []State) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestConnect_AlreadyConnectedShortCircuit(t *testing.T) {
	adapter := &fakeAdapter{statusResults: []bool{true}}
	o, trace := traceOrchestrator(adapter, &fakeProber{ready: true}, Config{Retries: 3})

	outcome := o.Connect(context.Background(), testProfile())

	if !outcome.Connected() || !outcome.AlreadyConnected {
		t.Errorf("outcome = %+v, want already-connected success", outcome)
	}
	if adapter.connectCalls != 0 {
		t.Errorf("connect() invoked %d times, want 0", adapter.connectCalls)
	}
	if !statesEqual(*trace, []State{StateIdle, StateConnected}) {
		t.Errorf("trace = %v, want direct Idle->Connected", *trace)
	}
	if outcome.Summary() != "already connected" {
		t.Errorf("Summary() = %q", outcome.Summary())
	}
}

func TestConnect_RetryExhaustion(t *testing.T) {
	// status() never confirms; with a budget of 3 the machine must visit
	// Invoking/Verifying exactly 3 times and fail on verification.
	adapter := &fakeAdapter{statusResults: []bool{false}}
	o, trace := traceOrchestrator(adapter, &fakeProber{ready: true}, Config{Retries: 3, Delay: 0})

	outcome := o.Connect(context.Background(), testProfile())

	if outcome.State != StateFailed {
		t.Fatalf("outcome state = %v, want Failed", outcome.State)
	}
	if outcome.Failure != FailureConnectVerification {
		t.Errorf("failure kind = %v, want connect verification", outcome.Failure)
	}
	if outcome.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", outcome.Attempts)
	}
	if adapter.connectCalls != 3 {
		t.Errorf("connect() invoked %d times, want 3", adapter.connectCalls)
	}

	invoking, verifying := 0, 0
	for _, s := range *trace {
		switch s {
		case StateInvoking:
			invoking++
		case StateVerifying:
			verifying++
		}
	}
	if invoking != 3 || verifying != 3 {
		t.Errorf("visited Invoking %d times and Verifying %d times, want 3 and 3", invoking, verifying)
	}
	if (*trace)[len(*trace)-1] != StateFailed {
		t.Errorf("terminal state = %v, want Failed", (*trace)[len(*trace)-1])
	}
}

func TestConnect_NetworkGate(t *testing.T) {
	// The probe never passes, so the client must never be invoked and the
	// failure kind must be the network one, not a connect failure.
	adapter := &fakeAdapter{statusResults: []bool{false}}
	o, trace := traceOrchestrator(adapter, &fakeProber{ready: false}, Config{Retries: 3, Delay: 0})

	outcome := o.Connect(context.Background(), testProfile())

	if outcome.State != StateFailed {
		t.Fatalf("outcome state = %v, want Failed", outcome.State)
	}
	if outcome.Failure != FailureNetworkNotReady {
		t.Errorf("failure kind = %v, want network not ready", outcome.Failure)
	}
	if adapter.connectCalls != 0 {
		t.Errorf("connect() invoked %d times, want 0", adapter.connectCalls)
	}
	for _, s := range *trace {
		if s == StateInvoking {
			t.Error("machine must not reach Invoking when the network is never ready")
		}
	}
}

func TestConnect_EndToEndScenario(t *testing.T) {
	// Profile "office", retries=2, delay=0. connect() always completes at
	// the process level; status() confirms only on the second
	// verification.
	adapter := &fakeAdapter{statusResults: []bool{false, false, true}}
	o, trace := traceOrchestrator(adapter, &fakeProber{ready: true}, Config{Retries: 2, Delay: 0})

	outcome := o.Connect(context.Background(), testProfile())

	if !outcome.Connected() || outcome.AlreadyConnected {
		t.Fatalf("outcome = %+v, want fresh connection", outcome)
	}
	if outcome.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", outcome.Attempts)
	}
	if adapter.connectCalls != 2 {
		t.Errorf("connect() invoked %d times, want 2", adapter.connectCalls)
	}
	if adapter.configuredHost != "vpn.example.com" {
		t.Errorf("SetConfig host = %q", adapter.configuredHost)
	}

	want := []State{
		StateIdle,
		StateProbingNetwork, StateInvoking, StateVerifying, StateRetrying,
		StateProbingNetwork, StateInvoking, StateVerifying,
		StateConnected,
	}
	if !statesEqual(*trace, want) {
		t.Errorf("trace = %v, want %v", *trace, want)
	}

	if outcome.Summary() != "connected, succeeded after 2 attempts" {
		t.Errorf("Summary() = %q", outcome.Summary())
	}
}

func TestConnect_ClientErrorCapturedAndRetried(t *testing.T) {
	adapter := &fakeAdapter{
		statusResults: []bool{false},
		connectErr:    fmt.Errorf("%w: exit 1", client.ErrExternalClient),
	}
	o, _ := traceOrchestrator(adapter, &fakeProber{ready: true}, Config{Retries: 2, Delay: 0})

	outcome := o.Connect(context.Background(), testProfile())

	if outcome.State != StateFailed {
		t.Fatalf("outcome state = %v, want Failed", outcome.State)
	}
	if outcome.Failure != FailureExternalClient {
		t.Errorf("failure kind = %v, want external client error", outcome.Failure)
	}
	if adapter.connectCalls != 2 {
		t.Errorf("connect() invoked %d times, want retries to continue past client errors", adapter.connectCalls)
	}
}

func TestConfig_Normalization(t *testing.T) {
	tests := []struct {
		name        string
		in          Config
		wantRetries int
		wantDelay   time.Duration
	}{
		{"zero value gets defaults", Config{}, DefaultRetries, 0},
		{"negative delay clamped", Config{Retries: 2, Delay: -5 * time.Second}, 2, 0},
		{"explicit values kept", Config{Retries: 7, Delay: time.Second}, 7, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.normalized()
			if got.Retries != tt.wantRetries || got.Delay != tt.wantDelay {
				t.Errorf("normalized() = %+v", got)
			}
		})
	}
}

func TestConnect_SleepsBetweenAttempts(t *testing.T) {
	adapter := &fakeAdapter{statusResults: []bool{false}}
	o := New(adapter, &fakeProber{ready: true}, Config{Retries: 3, Delay: 2 * time.Second}, nil)

	var slept []time.Duration
	o.sleep = func(d time.Duration) { slept = append(slept, d) }

	o.Connect(context.Background(), testProfile())

	// Two waits between three attempts, none after the last.
	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(slept))
	}
	for _, d := range slept {
		if d != 2*time.Second {
			t.Errorf("slept %v, want 2s", d)
		}
	}
}
