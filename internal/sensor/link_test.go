package sensor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePort simulates a serial port with scripted bytes.
type fakePort struct {
	mu      sync.Mutex
	data    []byte
	readErr error
	drained bool
	closed  bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.data) == 0 {
		// Simulates the read timeout elapsing with no bytes.
		return 0, nil
	}
	n := copy(buf, p.data)
	p.data = p.data[n:]
	return n, nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	p.drained = true
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) feed(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = append(p.data, s...)
}

func (p *fakePort) setReadErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
}

func testLinkConfig() LinkConfig {
	return LinkConfig{
		Device:        "/dev/ttyFAKE",
		BaudRate:      9600,
		ReadTimeout:   time.Millisecond,
		SettleDelay:   0,
		RetryInterval: 10 * time.Millisecond,
	}
}

func newTestLink(port *fakePort) *Link {
	return NewLink(testLinkConfig(), nil, WithOpener(func(LinkConfig) (Port, error) {
		return port, nil
	}))
}

func TestLink_ConnectDrainsStaleBytes(t *testing.T) {
	port := &fakePort{}
	port.feed("stale bytes from before handshake\n")

	link := newTestLink(port)
	if err := link.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if !port.drained {
		t.Error("Connect did not drain the transport buffer")
	}
	if !link.IsConnected() {
		t.Error("IsConnected = false after successful Connect")
	}

	line, err := link.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "" {
		t.Errorf("ReadLine = %q, want no data after drain", line)
	}
}

func TestLink_ConnectFailureLeavesDisconnected(t *testing.T) {
	link := NewLink(testLinkConfig(), nil, WithOpener(func(LinkConfig) (Port, error) {
		return nil, errors.New("no such device")
	}))

	if err := link.Connect(context.Background()); err == nil {
		t.Fatal("Connect succeeded, want error")
	}
	if link.IsConnected() {
		t.Error("IsConnected = true after failed Connect")
	}
}

func TestLink_ReadLine(t *testing.T) {
	port := &fakePort{}
	link := newTestLink(port)
	if err := link.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	port.feed(`{"rpm": 1200, "lift": 0.8}` + "\n")

	line, err := link.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != `{"rpm": 1200, "lift": 0.8}` {
		t.Errorf("ReadLine = %q", line)
	}

	// Nothing left: non-blocking poll reports no data.
	line, err = link.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "" {
		t.Errorf("ReadLine = %q, want empty", line)
	}
}

func TestLink_ReadLineAccumulatesPartialLines(t *testing.T) {
	port := &fakePort{}
	link := newTestLink(port)
	if err := link.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	port.feed(`{"rpm": 15`)
	line, err := link.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "" {
		t.Errorf("ReadLine = %q, want empty for partial line", line)
	}

	port.feed("00}\r\n")
	line, err = link.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != `{"rpm": 1500}` {
		t.Errorf("ReadLine = %q", line)
	}
}

func TestLink_ReadFaultTransitionsToDisconnected(t *testing.T) {
	port := &fakePort{}
	link := newTestLink(port)
	if err := link.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	port.setReadErr(io.ErrUnexpectedEOF)

	_, err := link.ReadLine()
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("ReadLine err = %v, want ErrTransport", err)
	}
	if link.IsConnected() {
		t.Error("IsConnected = true after transport fault")
	}
	if !port.closed {
		t.Error("port not closed after transport fault")
	}

	// Next poll reports not connected rather than touching the port.
	if _, err := link.ReadLine(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ReadLine err = %v, want ErrNotConnected", err)
	}
}

func TestLink_ReadLineWhenDisconnected(t *testing.T) {
	link := newTestLink(&fakePort{})
	if _, err := link.ReadLine(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ReadLine err = %v, want ErrNotConnected", err)
	}
}

func TestLink_DisconnectIdempotent(t *testing.T) {
	port := &fakePort{}
	link := newTestLink(port)
	if err := link.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := link.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if err := link.Disconnect(); err != nil {
		t.Fatalf("second Disconnect failed: %v", err)
	}
	if link.IsConnected() {
		t.Error("IsConnected = true after Disconnect")
	}
	if !port.closed {
		t.Error("port not closed")
	}
}

func TestLink_ConcurrentConnectKeepsOnePort(t *testing.T) {
	var mu sync.Mutex
	var ports []*fakePort
	entered := make(chan struct{}, 2)
	release := make(chan struct{})

	link := NewLink(testLinkConfig(), nil, WithOpener(func(LinkConfig) (Port, error) {
		p := &fakePort{}
		mu.Lock()
		ports = append(ports, p)
		mu.Unlock()
		entered <- struct{}{}
		<-release
		return p, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := link.Connect(context.Background()); err != nil {
				t.Errorf("Connect failed: %v", err)
			}
		}()
	}

	// Both callers are past the connected-check and inside the opener;
	// let them race to finish.
	<-entered
	<-entered
	close(release)
	wg.Wait()

	if !link.IsConnected() {
		t.Fatal("IsConnected = false after concurrent Connect")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ports) != 2 {
		t.Fatalf("opened %d ports, want 2", len(ports))
	}
	closed := 0
	for _, p := range ports {
		if p.closed {
			closed++
		}
	}
	if closed != 1 {
		t.Fatalf("closed %d ports, want exactly 1 (loser's handle must not leak)", closed)
	}
}

func TestLink_AutoReconnect(t *testing.T) {
	var mu sync.Mutex
	opens := 0
	failing := true

	link := NewLink(testLinkConfig(), nil, WithOpener(func(LinkConfig) (Port, error) {
		mu.Lock()
		defer mu.Unlock()
		opens++
		if failing {
			return nil, errors.New("device busy")
		}
		return &fakePort{}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	link.StartAutoReconnect(ctx)
	// Second start must not spawn a second loop.
	link.StartAutoReconnect(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := opens
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	failing = false
	mu.Unlock()

	for time.Now().Before(deadline) {
		if link.IsConnected() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !link.IsConnected() {
		t.Fatal("auto-reconnect never connected")
	}

	// Disconnect stops the loop; no further open attempts.
	if err := link.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond) // let any in-flight attempt land
	mu.Lock()
	after := opens
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	final := opens
	mu.Unlock()
	if final != after {
		t.Errorf("open attempts after Disconnect: %d -> %d, want unchanged", after, final)
	}
}
