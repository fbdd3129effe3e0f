// Package promptstack holds the ordered, role-tagged messages handed to a
// prompt driver for one inference call.
package promptstack

import (
	"strings"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a prompt stack.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (m Message) IsSystem() bool    { return m.Role == RoleSystem }
func (m Message) IsUser() bool      { return m.Role == RoleUser }
func (m Message) IsAssistant() bool { return m.Role == RoleAssistant }

// Stack is an ordered sequence of messages. Stacks are built per invocation;
// memory contributors receive a *Stack and may append to it.
type Stack struct {
	messages []Message
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{}
}

// Add appends a message.
func (s *Stack) Add(m Message) {
	s.messages = append(s.messages, m)
}

func (s *Stack) AddSystemInput(content string) {
	s.Add(Message{Role: RoleSystem, Content: content})
}

func (s *Stack) AddUserInput(content string) {
	s.Add(Message{Role: RoleUser, Content: content})
}

func (s *Stack) AddAssistantInput(content string) {
	s.Add(Message{Role: RoleAssistant, Content: content})
}

// Messages returns a copy of the messages in order.
func (s *Stack) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Stack) Len() int {
	return len(s.messages)
}

// SystemText joins the content of all system messages with blank lines.
// APIs that take the system prompt as a separate field use this.
func (s *Stack) SystemText() string {
	var parts []string
	for _, m := range s.messages {
		if m.IsSystem() {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Conversation returns the non-system messages in order.
func (s *Stack) Conversation() []Message {
	var out []Message
	for _, m := range s.messages {
		if !m.IsSystem() {
			out = append(out, m)
		}
	}
	return out
}

// LastUserInput returns the content of the last user message, if any.
func (s *Stack) LastUserInput() (string, bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].IsUser() {
			return s.messages[i].Content, true
		}
	}
	return "", false
}

// String renders the stack for debugging and the `stack` command.
func (s *Stack) String() string {
	var b strings.Builder
	for i, m := range s.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[")
		b.WriteString(string(m.Role))
		b.WriteString("]\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
