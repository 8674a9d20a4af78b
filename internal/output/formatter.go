package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"devdisplay/internal/display"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// LineFormat is the console template: device identifier, then message.
const LineFormat = "[DISPLAY] device %s message: %s\n"

// FormatLine renders n with LineFormat.
func FormatLine(n display.Notification) string {
	return fmt.Sprintf(LineFormat, n.DeviceID, n.Message)
}

// Console prints one LineFormat line per notification.
type Console struct {
	w io.Writer
}

// NewConsole returns a Console writing to w, or to stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Display implements display.Sink. The whole line goes out in a single Write.
func (c *Console) Display(n display.Notification) error {
	if _, err := io.WriteString(c.w, FormatLine(n)); err != nil {
		return fmt.Errorf("failed to write console line: %w", err)
	}
	return nil
}

// JSON prints one compact JSON object per notification.
type JSON struct {
	enc *json.Encoder
}

// NewJSON returns a JSON sink writing to w, or to stdout when w is nil.
func NewJSON(w io.Writer) *JSON {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSON{enc: enc}
}

// Display implements display.Sink.
func (j *JSON) Display(n display.Notification) error {
	if err := j.enc.Encode(n); err != nil {
		return fmt.Errorf("failed to write json line: %w", err)
	}
	return nil
}

// Styled prints the console template with terminal colors.
type Styled struct {
	w      io.Writer
	tag    lipgloss.Style
	device lipgloss.Style
	msg    lipgloss.Style
}

// NewStyled returns a Styled sink for w. Unless force is set, colors are only
// emitted when w is a terminal that supports them. Tabs are written as-is.
func NewStyled(w io.Writer, force bool) *Styled {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	if force {
		r.SetColorProfile(termenv.ANSI256)
	}
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return &Styled{
		w:      w,
		tag:    base.Bold(true).Foreground(lipgloss.Color("12")),
		device: base.Foreground(lipgloss.Color("11")),
		msg:    base,
	}
}

// Display implements display.Sink.
func (s *Styled) Display(n display.Notification) error {
	line := fmt.Sprintf("%s device %s message: %s\n",
		s.tag.Render("[DISPLAY]"),
		s.device.Render(n.DeviceID),
		s.msg.Render(n.Message),
	)
	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("failed to write styled line: %w", err)
	}
	return nil
}
