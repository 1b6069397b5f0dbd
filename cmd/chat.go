package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagChatConversation string

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the finance advisor a question",
	Long:  "With a question, print one reply. Without one, start an interactive session (empty line to exit).",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&flagChatConversation, "conversation", "", "Conversation ID to continue (default: new)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, _, err := buildSource(cfg)
	if err != nil {
		return err
	}
	adv, err := buildAdvisor(cfg, src)
	if err != nil {
		return err
	}

	history := openHistory()
	if history != nil {
		defer func() { _ = history.Close() }()
	}
	convID := flagChatConversation
	if convID == "" {
		convID = uuid.NewString()
	}
	s := chatSession{adv: adv, history: history, convID: convID}

	if len(args) > 0 {
		reply, err := s.ask(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	fmt.Println()
	fmt.Printf("  %s\n\n", advisor.Greeting)
	for i, sg := range advisor.Suggestions {
		fmt.Printf("  (%d) %s: %s\n", i+1, sg.Category, sg.Question)
	}
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("  > ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if n := suggestionIndex(line); n >= 0 {
			line = advisor.Suggestions[n].Question
			fmt.Printf("  %s\n", line)
		}

		reply, askErr := s.ask(line)
		if askErr != nil {
			fmt.Printf("  Error: %v\n\n", askErr)
		} else {
			fmt.Printf("\n  %s\n\n", reply)
		}
		if err != nil {
			break
		}
	}

	if history != nil {
		fmt.Printf("  Conversation saved as %s\n", convID)
	}
	return nil
}

// suggestionIndex returns the suggestion chosen by a "1".."4" answer, or -1.
func suggestionIndex(line string) int {
	if len(line) != 1 || line[0] < '1' || int(line[0]-'1') >= len(advisor.Suggestions) {
		return -1
	}
	return int(line[0] - '1')
}

type chatSession struct {
	adv     advisor.Advisor
	history *store.History
	convID  string
}

func (s chatSession) ask(question string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.record("user", question)
	reply, err := s.adv.Reply(ctx, s.convID, question)
	if err != nil {
		return "", err
	}
	s.record("assistant", reply)
	return reply, nil
}

func (s chatSession) record(role, content string) {
	if s.history == nil {
		return
	}
	if err := s.history.AppendChat(store.ChatMessage{
		ConversationID: s.convID,
		Role:           role,
		Content:        content,
	}); err != nil {
		progress("  Could not save chat: %v\n", err)
	}
}
