package models

import (
	"sync"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"model", RoleModel, false},
		{"assistant", "", true},
		{"User", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConversation_AppendKeepsOrder(t *testing.T) {
	conv := NewConversation()

	_ = conv.Append(UserMessage("halo"))
	_ = conv.Append(ModelMessage("halo juga"))

	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleModel {
		t.Errorf("roles = [%s %s], want [user model]", msgs[0].Role, msgs[1].Role)
	}
	if msgs[0].Time.IsZero() {
		t.Error("message time should be set")
	}
}

func TestConversation_AppendRejectsInvalidRole(t *testing.T) {
	conv := NewConversation()

	if err := conv.Append(Message{Role: "assistant", Text: "x"}); err == nil {
		t.Error("expected error for invalid role")
	}
	if conv.Len() != 0 {
		t.Errorf("Len() = %d, want 0", conv.Len())
	}
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	conv := NewConversation()
	_ = conv.Append(UserMessage("original"))

	msgs := conv.Messages()
	msgs[0].Text = "mutated"

	if got := conv.Messages()[0].Text; got != "original" {
		t.Errorf("conversation was mutated through copy: %q", got)
	}
}

func TestConversation_LastAndReset(t *testing.T) {
	conv := NewConversation()

	if _, ok := conv.Last(); ok {
		t.Error("Last() on empty conversation should return false")
	}

	_ = conv.Append(UserMessage("a"))
	_ = conv.Append(ModelMessage("b"))

	last, ok := conv.Last()
	if !ok || last.Text != "b" {
		t.Errorf("Last() = %q, %v", last.Text, ok)
	}

	conv.Reset()
	if conv.Len() != 0 {
		t.Errorf("Len() after Reset = %d", conv.Len())
	}
}

func TestConversation_HistoryDropsFailedExchanges(t *testing.T) {
	conv := NewConversation()
	_ = conv.Append(UserMessage("q1"))
	_ = conv.Append(ModelMessage("a1"))
	_ = conv.Append(UserMessage("q2"))
	_ = conv.Append(FallbackMessage("Waduh, gua error nih. Coba lagi ya!"))
	_ = conv.Append(UserMessage("q3"))
	_ = conv.Append(ModelMessage("a3"))

	history := conv.History()

	want := []string{"q1", "a1", "q3", "a3"}
	if len(history) != len(want) {
		t.Fatalf("History() len = %d, want %d", len(history), len(want))
	}
	for i, msg := range history {
		if msg.Text != want[i] {
			t.Errorf("History()[%d] = %q, want %q", i, msg.Text, want[i])
		}
		if msg.Fallback {
			t.Errorf("History()[%d] should not be a fallback", i)
		}
	}
}

func TestConversation_ConcurrentAppend(t *testing.T) {
	conv := NewConversation()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = conv.Append(UserMessage("x"))
			_ = conv.Messages()
		}()
	}
	wg.Wait()

	if conv.Len() != 50 {
		t.Errorf("Len() = %d, want 50", conv.Len())
	}
}

func TestModelFromName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ModelFlashExp.Name},
		{"flash-exp", ModelFlashExp.Name},
		{"fast", ModelFlash.Name},
		{"pro", ModelPro.Name},
		{"gemini-2.5-pro", ModelPro.Name},
		{"gemini-9-ultra", "gemini-9-ultra"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ModelFromName(tt.input).Name; got != tt.want {
				t.Errorf("ModelFromName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
