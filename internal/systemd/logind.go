package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/login1"
	"github.com/godbus/dbus/v5"

	"github.com/smazurov/aurad/internal/events"
)

const (
	logindDest      = "org.freedesktop.login1"
	logindPath      = dbus.ObjectPath("/org/freedesktop/login1")
	managerIface    = "org.freedesktop.login1.Manager"
	signalSleep     = "PrepareForSleep"
	signalShutdown  = "PrepareForShutdown"
	propLidClosed   = managerIface + ".LidClosed"
	propOnExtPower  = managerIface + ".OnExternalPower"
	inhibitWhat     = "sleep:shutdown"
	inhibitWho      = "aurad"
	inhibitWhy      = "Saving keyboard LED state"
	inhibitModeWait = "delay"

	// DefaultPollInterval is how often lid and power source are sampled.
	// logind emits no signal for either.
	DefaultPollInterval = 2 * time.Second
)

// Handler receives logind transitions.
type Handler interface {
	OnSleep(start bool)
	OnShutdown(start bool)
	OnLidChanged(closed bool)
	OnPowerSourceChanged(online bool)
}

// Publisher receives system state events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// PropertyReader samples the logind properties that are polled.
type PropertyReader interface {
	LidClosed() (bool, error)
	OnExternalPower() (bool, error)
}

// Logind forwards sleep and shutdown signals and polled lid and power
// changes to a Handler. It holds a delay inhibitor so the handler can run
// before the system suspends.
type Logind struct {
	handler      Handler
	bus          Publisher
	props        PropertyReader
	pollInterval time.Duration
	logger       *slog.Logger

	// Nil when running without a system bus (tests).
	login   *login1.Conn
	sysConn *dbus.Conn
	inhibit func() (io.Closer, error)

	mu   sync.Mutex
	lock io.Closer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Logind.
type Option func(*Logind)

// WithPollInterval sets the lid and power sampling interval.
func WithPollInterval(d time.Duration) Option {
	return func(l *Logind) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// WithPublisher publishes a SystemStateEvent for every transition.
func WithPublisher(bus Publisher) Option {
	return func(l *Logind) {
		l.bus = bus
	}
}

// NewLogind connects to logind on the system bus.
func NewLogind(handler Handler, logger *slog.Logger, opts ...Option) (*Logind, error) {
	login, err := login1.New()
	if err != nil {
		return nil, err
	}
	sysConn, err := dbus.ConnectSystemBus()
	if err != nil {
		login.Close()
		return nil, err
	}

	l := newLogind(handler, &busProperties{obj: sysConn.Object(logindDest, logindPath)}, logger, opts...)
	l.login = login
	l.sysConn = sysConn
	l.inhibit = func() (io.Closer, error) {
		return login.Inhibit(inhibitWhat, inhibitWho, inhibitWhy, inhibitModeWait)
	}
	return l, nil
}

func newLogind(handler Handler, props PropertyReader, logger *slog.Logger, opts ...Option) *Logind {
	l := &Logind{
		handler:      handler,
		props:        props,
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start takes the inhibitor lock and starts the signal and polling loops.
func (l *Logind) Start(ctx context.Context) error {
	ctx, l.cancel = context.WithCancel(ctx)

	l.acquireInhibitor()

	if l.login != nil {
		signals := l.login.Subscribe(signalSleep, signalShutdown)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.signalLoop(ctx, signals)
		}()
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.pollLoop(ctx)
	}()

	l.logger.Info("logind monitor started", "poll_interval", l.pollInterval)
	return nil
}

// Stop ends the loops, releases the inhibitor and closes the connections.
func (l *Logind) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	l.releaseInhibitor()
	if l.login != nil {
		l.login.Close()
	}
	if l.sysConn != nil {
		_ = l.sysConn.Close()
	}
	l.logger.Info("logind monitor stopped")
}

func (l *Logind) signalLoop(ctx context.Context, signals <-chan *dbus.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			l.dispatch(sig)
		}
	}
}

// dispatch routes one logind signal. The inhibitor is released once the
// handler has finished with the "start" edge and re-taken on the "end" edge.
func (l *Logind) dispatch(sig *dbus.Signal) {
	if sig == nil || len(sig.Body) < 1 {
		return
	}
	start, ok := sig.Body[0].(bool)
	if !ok {
		return
	}

	switch sig.Name {
	case managerIface + "." + signalSleep:
		l.logger.Debug("PrepareForSleep", "start", start)
		l.publish(events.StateSleep, start)
		l.handler.OnSleep(start)
	case managerIface + "." + signalShutdown:
		l.logger.Debug("PrepareForShutdown", "start", start)
		l.publish(events.StateShutdown, start)
		l.handler.OnShutdown(start)
	default:
		return
	}

	if start {
		l.releaseInhibitor()
	} else {
		l.acquireInhibitor()
	}
}

func (l *Logind) pollLoop(ctx context.Context) {
	lid, lidErr := l.props.LidClosed()
	power, powerErr := l.props.OnExternalPower()
	if lidErr != nil || powerErr != nil {
		l.logger.Debug("logind properties unavailable", "lid_error", lidErr, "power_error", powerErr)
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lid = l.pollOnce(lid, l.props.LidClosed, events.StateLid, l.handler.OnLidChanged)
			power = l.pollOnce(power, l.props.OnExternalPower, events.StatePowerSource, l.handler.OnPowerSourceChanged)
		}
	}
}

// pollOnce samples one property and calls onChange when it differs from last.
func (l *Logind) pollOnce(last bool, read func() (bool, error), kind string, onChange func(bool)) bool {
	next, err := read()
	if err != nil || next == last {
		return last
	}
	l.publish(kind, next)
	onChange(next)
	return next
}

func (l *Logind) publish(kind string, active bool) {
	if l.bus != nil {
		l.bus.Publish(events.SystemStateEvent{Kind: kind, Active: active, Timestamp: events.Now()})
	}
}

func (l *Logind) acquireInhibitor() {
	if l.inhibit == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lock != nil {
		return
	}
	lock, err := l.inhibit()
	if err != nil {
		l.logger.Warn("Failed to take sleep inhibitor", "error", err)
		return
	}
	l.lock = lock
}

func (l *Logind) releaseInhibitor() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lock == nil {
		return
	}
	if err := l.lock.Close(); err != nil {
		l.logger.Warn("Failed to release sleep inhibitor", "error", err)
	}
	l.lock = nil
}

// busProperties reads logind manager properties over D-Bus.
type busProperties struct {
	obj dbus.BusObject
}

var errNotBool = errors.New("property is not a boolean")

func (p *busProperties) LidClosed() (bool, error) {
	return p.boolProperty(propLidClosed)
}

func (p *busProperties) OnExternalPower() (bool, error) {
	return p.boolProperty(propOnExtPower)
}

func (p *busProperties) boolProperty(name string) (bool, error) {
	v, err := p.obj.GetProperty(name)
	if err != nil {
		return false, err
	}
	b, ok := v.Value().(bool)
	if !ok {
		return false, errNotBool
	}
	return b, nil
}
