// Package tui implements the terminal user interface
package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/oisee/fortytracker/pkg/audio"
	"github.com/oisee/fortytracker/pkg/base40"
	"github.com/oisee/fortytracker/pkg/format"
	"github.com/oisee/fortytracker/pkg/tracker"
)

// Column within a cell
type Column int

const (
	ColNote Column = iota
	ColInstrument
	ColVolume
	numColumns
)

// transposeSteps are the intervals offered for pattern transposition
var transposeSteps = []string{
	"+A1", "+m2", "+M2", "+m3", "+M3", "+P4", "+A4", "+d5",
	"+P5", "+m6", "+M6", "+m7", "+M7", "+P8",
}

// Model is the main TUI model
type Model struct {
	Song     *tracker.Song
	Player   *audio.Player
	Filename string
	// Clocked advances the player from the UI tick when no audio device drives it
	Clocked bool

	// View state
	Width    int
	Height   int
	ShowHelp bool

	// Pattern editor state
	EditPos   int // Order position being edited
	CursorRow int
	CursorCh  int
	CursorCol Column
	ViewRow   int // Top visible row
	Octave    int // Current input octave
	Step      int // Index into transposeSteps

	// Playback display
	PlayPos int
	PlayPat int
	PlayRow int
	Playing bool

	StatusMsg string
}

// NewModel creates a new TUI model
func NewModel(song *tracker.Song, filename string) Model {
	return Model{
		Song:     song,
		Player:   audio.NewPlayer(song),
		Filename: filename,
		Octave:   4,
		Step:     4,
		Width:    120,
		Height:   30,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
	)
}

// tickMsg is sent periodically for playback updates
type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		if m.Clocked {
			m.Player.AdvanceTime()
		}
		pos, pat, row, _, playing := m.Player.GetPlaybackInfo()
		m.PlayPos = pos
		m.PlayPat = pat
		m.PlayRow = row
		m.Playing = playing

		// Follow playback
		if playing && pos == m.EditPos {
			m.CursorRow = row
			m.ensureRowVisible()
		}
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) visibleRows() int {
	if rows := m.Height - 10; rows > 8 {
		return rows
	}
	return 8
}

func (m *Model) ensureRowVisible() {
	if m.CursorRow < m.ViewRow {
		m.ViewRow = m.CursorRow
	}
	if rows := m.visibleRows(); m.CursorRow >= m.ViewRow+rows {
		m.ViewRow = m.CursorRow - rows + 1
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.StatusMsg = ""
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		m.Player.Stop()
		return m, tea.Quit

	case "f1":
		m.ShowHelp = !m.ShowHelp

	case "ctrl+s":
		m.save()

	// Playback controls
	case " ":
		if m.Playing {
			m.Player.Stop()
		} else {
			m.Player.SetPosition(m.EditPos, m.CursorRow)
			m.Player.Play()
		}

	case "f8":
		m.Player.Stop()

	// Navigation
	case "up":
		m.moveRow(-1)
	case "down":
		m.moveRow(1)
	case "pgup":
		m.moveRow(-16)
	case "pgdown":
		m.moveRow(16)
	case "home":
		m.moveRow(-m.CursorRow)
	case "end":
		m.moveRow(1 << 10)
	case "left":
		m.moveColumn(-1)
	case "right":
		m.moveColumn(1)
	case "tab":
		m.moveChannel(1)
	case "shift+tab":
		m.moveChannel(-1)
	case ">":
		m.moveEditPos(1)
	case "<":
		m.moveEditPos(-1)

	// Octave
	case "*":
		if m.Octave < 9 {
			m.Octave++
		}
	case "/":
		if m.Octave > 0 {
			m.Octave--
		}

	// Interval tools
	case "]":
		m.Step = (m.Step + 1) % len(transposeSteps)
		m.StatusMsg = "interval " + transposeSteps[m.Step]
	case "[":
		m.Step = (m.Step + len(transposeSteps) - 1) % len(transposeSteps)
		m.StatusMsg = "interval " + transposeSteps[m.Step]
	case "t":
		m.transpose(m.stepInterval())
	case "T":
		m.transpose(m.stepInterval().Negate())
	case "i":
		m.invert()

	// Cell editing
	case "delete", "backspace":
		m.clearCell()
	case ".":
		m.setNote(tracker.Off())
	case "=", "+":
		m.alter(1)
	case "-":
		m.alter(-1)

	default:
		m.typeKey(key)
	}

	m.ensureRowVisible()
	return m, nil
}

// moveRow moves the cursor, clamped to the pattern
func (m *Model) moveRow(delta int) {
	pat := m.currentPattern()
	if pat == nil {
		return
	}
	m.CursorRow = min(max(m.CursorRow+delta, 0), pat.Rows-1)
}

// moveColumn steps through note, instrument and volume, wrapping into the
// neighbouring channel
func (m *Model) moveColumn(delta int) {
	pos := m.CursorCh*int(numColumns) + int(m.CursorCol) + delta
	if pos < 0 || pos >= m.Song.Channels*int(numColumns) {
		return
	}
	m.CursorCh, m.CursorCol = pos/int(numColumns), Column(pos%int(numColumns))
}

func (m *Model) moveChannel(delta int) {
	m.CursorCh = (m.CursorCh + delta + m.Song.Channels) % m.Song.Channels
	m.CursorCol = ColNote
}

func (m *Model) moveEditPos(delta int) {
	if len(m.Song.Order) == 0 {
		return
	}
	m.EditPos = (m.EditPos + delta + len(m.Song.Order)) % len(m.Song.Order)
	m.moveRow(0)
}

func (m *Model) currentPattern() *tracker.Pattern {
	patIdx := 0
	if m.EditPos < len(m.Song.Order) {
		patIdx = int(m.Song.Order[m.EditPos])
	}
	if patIdx < len(m.Song.Patterns) {
		return m.Song.Patterns[patIdx]
	}
	return nil
}

func (m *Model) cursorNote() *tracker.Note {
	pat := m.currentPattern()
	if pat == nil || m.CursorRow >= pat.Rows || m.CursorCh >= pat.Channels {
		return nil
	}
	return &pat.Notes[m.CursorRow][m.CursorCh]
}

func (m *Model) advance() {
	if pat := m.currentPattern(); pat != nil && m.CursorRow < pat.Rows-1 {
		m.CursorRow++
	}
}

func (m *Model) stepInterval() base40.Interval {
	return base40.MustInterval(transposeSteps[m.Step])
}

// typeKey handles letters and digits, whose meaning depends on the column
func (m *Model) typeKey(key string) {
	if len(key) != 1 {
		return
	}
	switch m.CursorCol {
	case ColNote:
		if key[0] < 'a' || key[0] > 'g' {
			return
		}
		name := strings.ToUpper(key) + strconv.Itoa(m.Octave)
		p, err := base40.ParsePitch(name)
		if err != nil {
			m.StatusMsg = err.Error()
			return
		}
		inst := uint8(1)
		if n := m.cursorNote(); n != nil && n.Instrument != 0 {
			inst = n.Instrument
		}
		m.setNote(tracker.On(p, inst))
	case ColInstrument:
		d, err := strconv.ParseUint(key, 16, 8)
		if n := m.cursorNote(); err == nil && n != nil {
			n.Instrument = n.Instrument<<4 | uint8(d)
		}
	case ColVolume:
		d, err := strconv.Atoi(key)
		if n := m.cursorNote(); err == nil && n != nil {
			v := int(n.Volume)
			if v < 0 {
				v = 0
			}
			v = (v*10 + d) % 100
			if v > 64 {
				v = d
			}
			n.Volume = int8(v)
		}
	}
}

func (m *Model) setNote(n tracker.Note) {
	cell := m.cursorNote()
	if cell == nil {
		return
	}
	if n.Kind == tracker.NoteOn {
		n.Volume = cell.Volume
	}
	*cell = n
	m.advance()
}

// alter moves the cursor note one chromatic step while keeping its letter
func (m *Model) alter(delta int) {
	cell := m.cursorNote()
	if cell == nil || cell.Kind != tracker.NoteOn {
		return
	}
	if acc := cell.Pitch.Accidentals() + delta; acc > base40.MaxAccidentals || acc < -base40.MaxAccidentals {
		m.StatusMsg = fmt.Sprintf("%s cannot take another accidental", cell.Pitch)
		return
	}
	p, err := base40.NewPitch(cell.Pitch.Value() + delta)
	if err != nil {
		m.StatusMsg = err.Error()
		return
	}
	cell.Pitch = p
}

func (m *Model) transpose(i base40.Interval) {
	pat := m.currentPattern()
	if pat == nil {
		return
	}
	if err := pat.Transpose(i); err != nil {
		m.StatusMsg = "transpose " + i.Name() + ": " + err.Error()
		logrus.WithError(err).WithField("interval", i.Name()).Debug("transpose refused")
		return
	}
	m.StatusMsg = "transposed " + i.Name()
}

func (m *Model) invert() {
	cell := m.cursorNote()
	if cell == nil || cell.Kind != tracker.NoteOn {
		m.StatusMsg = "place the cursor on a note to invert around"
		return
	}
	axis := cell.Pitch
	if err := m.currentPattern().Invert(axis); err != nil {
		m.StatusMsg = "invert: " + err.Error()
		return
	}
	m.StatusMsg = "inverted around " + axis.Name()
}

func (m *Model) clearCell() {
	cell := m.cursorNote()
	if cell == nil {
		return
	}
	switch m.CursorCol {
	case ColNote:
		*cell = tracker.Empty()
	case ColInstrument:
		cell.Instrument = 0
	case ColVolume:
		cell.Volume = -1
	}
}

func (m *Model) save() {
	if m.Filename == "" {
		m.StatusMsg = "no file name; start with a song path to save"
		return
	}
	f, err := os.Create(m.Filename)
	if err != nil {
		m.StatusMsg = err.Error()
		return
	}
	err = format.Save(f, m.Song)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.StatusMsg = errors.Wrap(err, "saving").Error()
		return
	}
	logrus.WithField("file", m.Filename).Info("song saved")
	m.StatusMsg = "saved " + m.Filename
}

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	beatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	playStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

	noteStyles = map[tracker.NoteKind]lipgloss.Style{
		tracker.NoteEmpty: dimStyle,
		tracker.NoteOn:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		tracker.NoteOff:   errStyle,
	}
	instStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	volStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

	cursorBg = lipgloss.Color("6")
	playBg   = lipgloss.Color("4")
)

// View implements tea.Model
func (m Model) View() string {
	if m.ShowHelp {
		return helpView()
	}
	return strings.Join([]string{
		m.headerView(),
		m.channelHeaderView(),
		m.patternView(),
		m.noteInfoView(),
		dimStyle.Render(footerKeys),
	}, "\n")
}

func (m Model) headerView() string {
	state := "STOPPED"
	if m.Playing {
		state = playStyle.Render("PLAYING")
	}
	return titleStyle.Render("FORTYTRACKER") + fmt.Sprintf(
		" │ Pos:%02d/%02d Pat:%02d Row:%02X │ Spd:%d BPM:%d │ Oct:%d Int:%s │ %s",
		m.EditPos, len(m.Song.Order), m.PlayPat, m.PlayRow,
		m.Song.Speed, m.Song.Tempo, m.Octave, transposeSteps[m.Step], state)
}

func (m Model) channelHeaderView() string {
	var b strings.Builder
	b.WriteString("   │")
	for ch := 0; ch < m.Song.Channels; ch++ {
		cfg := tracker.ChannelConfig{Name: fmt.Sprintf("CH%d", ch+1)}
		if ch < len(m.Song.ChanConfig) {
			cfg = m.Song.ChanConfig[ch]
		}
		style := dimStyle
		if ch == m.CursorCh {
			style = activeStyle
		}
		if cfg.Muted {
			style = style.Strikethrough(true)
		}
		b.WriteString(style.Render(fmt.Sprintf(" %-6.6s:%-3.3s", cfg.Name, cfg.Generator)) + "│")
	}
	return b.String()
}

func (m Model) patternView() string {
	pat := m.currentPattern()
	if pat == nil {
		return "No pattern"
	}
	last := min(m.ViewRow+m.visibleRows(), pat.Rows)
	lines := make([]string, 0, last-m.ViewRow)
	for row := m.ViewRow; row < last; row++ {
		lines = append(lines, m.renderRow(pat, row))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(pat *tracker.Pattern, row int) string {
	num := dimStyle
	if row%4 == 0 {
		num = beatStyle
	}
	if m.Playing && m.PlayPos == m.EditPos && row == m.PlayRow {
		num = num.Background(playBg)
	}
	marker := " "
	if row == m.CursorRow {
		marker = ">"
	}

	var b strings.Builder
	b.WriteString(marker + num.Render(fmt.Sprintf("%02X", row)) + "│")
	for ch, note := range pat.Notes[row] {
		b.WriteString(m.renderCell(note, row, ch) + "│")
	}
	return b.String()
}

func (m Model) renderCell(note tracker.Note, row, ch int) string {
	highlight := func(col Column, st lipgloss.Style) lipgloss.Style {
		if row == m.CursorRow && ch == m.CursorCh && m.CursorCol == col {
			return st.Background(cursorBg)
		}
		return st
	}

	inst, ist := "--", dimStyle
	if note.Instrument > 0 {
		inst, ist = fmt.Sprintf("%02X", note.Instrument), instStyle
	}
	vol, vst := "..", dimStyle
	if note.Volume >= 0 {
		vol, vst = fmt.Sprintf("%02d", note.Volume), volStyle
	}

	return highlight(ColNote, noteStyles[note.Kind]).Render(tracker.NoteToString(note)) + " " +
		highlight(ColInstrument, ist).Render(inst) + " " +
		highlight(ColVolume, vst).Render(vol)
}

// noteInfoView describes the cursor note and the melodic step into it
func (m Model) noteInfoView() string {
	var fields []string
	add := func(name, v string) {
		fields = append(fields, dimStyle.Render(name+":")+valueStyle.Render(v))
	}

	if cell := m.cursorNote(); cell != nil && cell.Kind == tracker.NoteOn {
		p := cell.Pitch
		midi := "--"
		if n, err := p.MIDI(); err == nil {
			midi = strconv.Itoa(int(n))
		}
		add("Note", p.Name())
		add("B40", strconv.Itoa(p.Value()))
		add("MIDI", midi)
		add("Ly", p.LilyPond())

		if prev, ok := m.currentPattern().PreviousNote(m.CursorRow, m.CursorCh); ok {
			step := "?"
			if i, err := prev.Interval(p); err == nil {
				step = i.Name()
			}
			add("From "+prev.Name(), step)
		}
	}
	if m.Playing {
		if p, ok := m.Player.SoundingPitch(m.CursorCh); ok {
			add("Sounding", p.Name())
		}
	}
	if m.StatusMsg != "" {
		fields = append(fields, errStyle.Render(m.StatusMsg))
	}
	return strings.Join(fields, "  ")
}

const footerKeys = " [A-G]Note [=/-]Accidental [[/]]Interval [t/T]Transpose [i]Invert [Space]Play [^S]Save [F1]Help [Q]Quit"

// helpSections pairs keys with what they do, one block per heading
var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Navigation", [][2]string{
		{"arrows", "move cursor"},
		{"tab", "next channel"},
		{"pgup pgdn", "16 rows"},
		{"home end", "first or last row"},
		{"< >", "order position"},
	}},
	{"Notes", [][2]string{
		{"a-g", "natural at the current octave"},
		{"= -", "one accidental up or down, ## to bb"},
		{"* /", "octave up or down"},
		{".", "note off"},
		{"del", "clear cell"},
		{"0-9 a-f", "instrument (hex) or volume (decimal)"},
	}},
	{"Intervals", [][2]string{
		{"[ ]", "choose transposition interval"},
		{"t T", "transpose pattern up or down, spellings kept"},
		{"i", "invert pattern around the cursor note"},
	}},
	{"Playback", [][2]string{
		{"space", "play from cursor or stop"},
		{"f8", "stop"},
		{"ctrl+s", "save"},
		{"f1", "close help"},
	}},
}

var helpBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("14")).
	Padding(0, 2)

func helpView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fortytracker"))
	for _, sec := range helpSections {
		b.WriteString("\n\n" + activeStyle.Render(sec.title))
		for _, k := range sec.keys {
			fmt.Fprintf(&b, "\n  %-10s %s", k[0], k[1])
		}
	}
	return helpBox.Render(b.String())
}
