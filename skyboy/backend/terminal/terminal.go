package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-skyboy/skyboy/backend"
	"github.com/valerio/go-skyboy/skyboy/debug"
	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/video"
)

const (
	// two pixel rows per terminal row
	gameRows = video.Height / 2

	panelX         = video.Width + 1
	minTermWidth   = video.Width
	minTermHeight  = gameRows + 1
	logCapacity    = 200
	registerHeight = 10
)

// Key expiry timeout - slightly longer than typical key repeat interval.
// Terminals report presses only, a button is held while presses keep coming.
const keyTimeout = 100 * time.Millisecond

// Backend renders the framebuffer with half-block characters using tcell.
type Backend struct {
	screen    tcell.Screen
	config    backend.Config
	keys      *keymap
	logs      *LogBuffer
	logLevel  slog.Level
	oldLogger *slog.Logger

	pressed   map[memory.JoypadKey]time.Time
	queue     []backend.Action
	showDebug bool
	signals   chan os.Signal

	now func() time.Time
}

type Option func(*Backend)

// WithScreen uses an existing screen instead of opening the terminal.
func WithScreen(screen tcell.Screen) Option {
	return func(t *Backend) { t.screen = screen }
}

func New(opts ...Option) *Backend {
	t := &Backend{
		logLevel: slog.LevelInfo,
		logs:     NewLogBuffer(logCapacity),
		pressed:  make(map[memory.JoypadKey]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Logs returns the buffer receiving log records while the backend is active.
func (t *Backend) Logs() *LogBuffer {
	return t.logs
}

func (t *Backend) Init(config backend.Config) error {
	keys, err := newKeymap(config.Keys)
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	t.keys = keys
	t.config = config
	t.showDebug = config.ShowDebug

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// anything written to stderr would corrupt the screen
	t.oldLogger = slog.Default()
	slog.SetDefault(slog.New(NewHandler(t.logs, slog.LevelDebug)))

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	slog.Info("Terminal backend initialized", "title", config.Title)
	return nil
}

func (t *Backend) Update(frame *video.Framebuffer, state *debug.Snapshot) (backend.Input, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.handleKey(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	select {
	case sig := <-t.signals:
		slog.Info("Received signal", "signal", sig)
		t.queue = append(t.queue, backend.ActionQuit)
	default:
	}

	var input backend.Input
	for key, at := range t.pressed {
		if now.Sub(at) < keyTimeout {
			input.Joypad.Set(key, true)
		} else {
			delete(t.pressed, key)
		}
	}
	input.Actions = t.queue
	t.queue = nil

	t.render(frame, state)
	t.screen.Show()

	return input, nil
}

func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.oldLogger != nil {
		slog.SetDefault(t.oldLogger)
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

func (t *Backend) handleKey(ev *tcell.EventKey, now time.Time) {
	b, ok := t.keys.lookup(ev)
	if !ok {
		return
	}

	if !b.isButton {
		switch b.action {
		case backend.ActionToggleDebug:
			t.showDebug = !t.showDebug
		case backend.ActionQuit:
			slog.Info("Quit requested")
		}
		t.queue = append(t.queue, b.action)
		return
	}

	// a terminal cannot hold two directions, the latest one wins
	switch b.button {
	case memory.JoypadUp, memory.JoypadDown, memory.JoypadLeft, memory.JoypadRight:
		delete(t.pressed, memory.JoypadUp)
		delete(t.pressed, memory.JoypadDown)
		delete(t.pressed, memory.JoypadLeft)
		delete(t.pressed, memory.JoypadRight)
	}
	t.pressed[b.button] = now
}

func (t *Backend) render(frame *video.Framebuffer, state *debug.Snapshot) {
	t.screen.Clear()

	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	t.drawFrame(frame)

	border := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for y := 0; y < termHeight-1; y++ {
		t.screen.SetContent(video.Width, y, '│', nil, border)
	}

	panelWidth := termWidth - panelX
	y := 0
	if t.showDebug && state != nil && panelWidth > 0 {
		y = t.drawState(panelX, panelWidth, termHeight-1, state)
	}
	t.drawLogs(panelX, y, panelWidth, termHeight-1)
	t.drawStatus(termHeight-1, termWidth, state)
}

// drawFrame maps two framebuffer rows to one terminal row: the upper half
// block takes the top pixel as foreground, the background is the bottom pixel.
func (t *Backend) drawFrame(frame *video.Framebuffer) {
	for row := 0; row < gameRows; row++ {
		for x := 0; x < video.Width; x++ {
			tr, tg, tb := frame.Pixel(x, row*2)
			br, bg, bb := frame.Pixel(x, row*2+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(tr), int32(tg), int32(tb))).
				Background(tcell.NewRGBColor(int32(br), int32(bg), int32(bb)))
			t.screen.SetContent(x, row, '▀', nil, style)
		}
	}
}

func (t *Backend) drawState(x, width, maxY int, s *debug.Snapshot) int {
	regs := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	c := s.CPU
	ime := "OFF"
	if c.IME {
		ime = "ON"
	}
	lines := []string{
		fmt.Sprintf("Status: %s  Frames: %d  States: %d", s.RunMode, s.Frames, s.SaveStates),
		fmt.Sprintf("A: %02X  F: %02X  [%s]", c.A, c.F, c.Flags),
		fmt.Sprintf("B: %02X  C: %02X", c.B, c.C),
		fmt.Sprintf("D: %02X  E: %02X", c.D, c.E),
		fmt.Sprintf("H: %02X  L: %02X", c.H, c.L),
		fmt.Sprintf("SP: %04X  PC: %04X  %s", c.SP, c.PC, c.FetchMode),
		fmt.Sprintf("IME: %s  IE: %02X  IF: %02X", ime, s.InterruptEnable, s.InterruptFlags),
		fmt.Sprintf("LY: %3d  LCDC: %02X  STAT: %02X  %s", s.LCD.LY, s.LCD.LCDC, s.LCD.STAT, s.LCD.Mode),
		fmt.Sprintf("DIV: %02X  TIMA: %02X  TMA: %02X  TAC: %02X", s.Timer.DIV, s.Timer.TIMA, s.Timer.TMA, s.Timer.TAC),
		"Sprites: -",
	}
	if s.OAM != nil {
		lines[len(lines)-1] = s.OAM.Summary()
	}

	y := 0
	for _, line := range lines {
		if y >= maxY {
			return y
		}
		t.drawText(x, y, width, line, regs)
		y++
	}

	normal := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	current := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	for _, ins := range s.Instructions {
		if y >= maxY {
			return y
		}
		style, marker := normal, ' '
		if ins.Current {
			style, marker = current, '>'
		}
		t.drawText(x, y, width, fmt.Sprintf("%c%04X: %02X %s", marker, ins.Address, ins.Opcode, ins.Name), style)
		y++
	}
	return y
}

func (t *Backend) drawLogs(x, y, width, maxY int) {
	if width <= 0 || y >= maxY {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}

	for _, entry := range t.logs.Recent(maxY-y, t.logLevel) {
		style, ok := styles[entry.Level]
		if !ok {
			style = styles[slog.LevelInfo]
		}
		t.drawText(x, y, width, entry.String(), style)
		y++
	}
}

func (t *Backend) drawStatus(y, width int, s *debug.Snapshot) {
	k := t.config.Keys
	help := fmt.Sprintf(" %s=pause %s=step %s=rewind %s=reset F10=debug F12=snapshot ESC=quit ",
		k.Pause, k.Step, k.Rewind, k.Reset)
	if s != nil && s.Cartridge != nil {
		help = " " + s.Cartridge.Title + " |" + help
	}
	t.drawText(0, y, width, help, tcell.StyleDefault.Reverse(true))
}

// drawText writes a single line clipped to width cells.
func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, ch := range text {
		if col >= width {
			return
		}
		t.screen.SetContent(x+col, y, ch, nil, style)
		col++
	}
}
