package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/tui/components"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chatTimeout bounds a single advisor reply.
const chatTimeout = 60 * time.Second

type chatRole int

const (
	roleAssistant chatRole = iota
	roleUser
)

type chatMessage struct {
	role chatRole
	text string
	at   time.Time
}

// chatState tracks the conversation shown in the chat tab.
type chatState struct {
	messages []chatMessage
	input    textinput.Model
	typing   bool
	pending  bool
	err      error
}

// chatReplyMsg is the advisor's answer to one question.
type chatReplyMsg struct {
	reply string
	err   error
}

func newChatState() chatState {
	ti := textinput.New()
	ti.Placeholder = "Ask about your finances..."
	ti.CharLimit = 500
	ti.Width = 60
	return chatState{
		messages: []chatMessage{{role: roleAssistant, text: advisor.Greeting, at: time.Now()}},
		input:    ti,
	}
}

// userMessages counts questions asked so far.
func (c chatState) userMessages() int {
	n := 0
	for _, m := range c.messages {
		if m.role == roleUser {
			n++
		}
	}
	return n
}

func (c *chatState) applyReply(msg chatReplyMsg) {
	c.pending = false
	c.err = msg.err
	if msg.err != nil {
		return
	}
	c.messages = append(c.messages, chatMessage{role: roleAssistant, text: msg.reply, at: time.Now()})
}

// chatConversationID names the TUI's single conversation.
const chatConversationID = "tui"

func askCmd(adv advisor.Advisor, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(chatTimeout)
		defer cancel()
		reply, err := adv.Reply(ctx, chatConversationID, question)
		return chatReplyMsg{reply: reply, err: err}
	}
}

// ask records the question and dispatches it. Blank or overlapping
// questions are ignored.
func (a App) ask(question string) (App, tea.Cmd) {
	question = strings.TrimSpace(question)
	if question == "" || a.chat.pending {
		return a, nil
	}
	a.chat.messages = append(a.chat.messages, chatMessage{role: roleUser, text: question, at: time.Now()})
	a.chat.pending = true
	a.chat.err = nil
	return a, askCmd(a.opts.Advisor, question)
}

// chatKey handles chat keys outside typing mode.
func (a App) chatKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "i", "enter", "/":
		a.chat.typing = true
		a.chat.input.Focus()
		return a, textinput.Blink, true
	case "1", "2", "3", "4":
		idx := int(key[0] - '1')
		if a.chat.userMessages() > 0 || idx >= len(advisor.Suggestions) {
			return a, nil, false
		}
		m, cmd := a.ask(advisor.Suggestions[idx].Question)
		return m, cmd, true
	}
	return a, nil, false
}

func (a App) updateChatInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		question := a.chat.input.Value()
		a.chat.input.SetValue("")
		m, cmd := a.ask(question)
		return m, cmd
	case "esc":
		a.chat.typing = false
		a.chat.input.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.chat.input, cmd = a.chat.input.Update(msg)
	return a, cmd
}

func (a App) renderChatTab(cw, h int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	userStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.AccentDim).Padding(0, 1)
	botStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Padding(0, 1)
	whoStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)

	bubbleW := innerW * 3 / 4
	var lines []string
	for _, m := range a.chat.messages {
		who := "Advisor"
		style := botStyle
		align := lipgloss.Left
		if m.role == roleUser {
			who = "You"
			style = userStyle
			align = lipgloss.Right
		}
		bubble := style.Width(bubbleW).Render(m.text)
		caption := whoStyle.Render(fmt.Sprintf("%s · %s", who, m.at.Format("15:04")))
		block := lipgloss.JoinVertical(align, caption, bubble)
		lines = append(lines, lipgloss.PlaceHorizontal(innerW, align, block,
			lipgloss.WithWhitespaceBackground(t.Surface)))
	}
	if a.chat.pending {
		lines = append(lines, a.spinner.View()+mutedStyle.Render(" Thinking..."))
	}
	if a.chat.err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).
			Render("Sorry, I couldn't answer that: "+a.chat.err.Error()))
	}

	// Keep the newest messages visible.
	convH := h - 10
	if convH < 4 {
		convH = 4
	}
	conv := strings.Join(lines, "\n\n")
	if all := strings.Split(conv, "\n"); len(all) > convH {
		conv = strings.Join(all[len(all)-convH:], "\n")
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Financial Advisor", conv, cw))
	b.WriteString("\n")

	var footer strings.Builder
	if a.chat.userMessages() == 0 {
		footer.WriteString(mutedStyle.Render("Suggested questions:"))
		footer.WriteString("\n")
		for i, s := range advisor.Suggestions {
			footer.WriteString(keyStyle.Render(fmt.Sprintf("[%d] ", i+1)))
			footer.WriteString(mutedStyle.Render(s.Category + ": "))
			footer.WriteString(lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).
				Render(truncStr(s.Question, innerW-16)))
			footer.WriteString("\n")
		}
	}
	if a.chat.typing {
		footer.WriteString(a.chat.input.View())
		footer.WriteString("\n")
		footer.WriteString(mutedStyle.Render("[Enter] send  [Esc] stop typing"))
	} else {
		footer.WriteString(mutedStyle.Render("[i] type a question"))
	}
	b.WriteString(components.ContentCard("", footer.String(), cw))
	return b.String()
}
