// Manual smoke test against a locally running server:
//
//	go run ./scripts/chatsmoke
//
// Registers a throwaway user, opens a session, sends one message through
// the optimistic client flow and prints the generated reply.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"career-counselor-be/internal/dto"
	"career-counselor-be/pkg/apiclient"

	"github.com/fatih/color"
)

func main() {
	baseURL := os.Getenv("SMOKE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := apiclient.New(baseURL)
	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())

	step := color.New(color.FgCyan).PrintfFunc()
	ok := color.New(color.FgGreen).PrintfFunc()
	fail := color.New(color.FgRed).PrintfFunc()

	step("1. Registering %s\n", email)
	if _, err := client.Register(ctx, &dto.RegisterRequest{Email: email, Password: "smoketest1"}); err != nil {
		fail("register failed: %v\n", err)
		os.Exit(1)
	}

	step("2. Logging in\n")
	login, err := client.Login(ctx, &dto.LoginRequest{Email: email, Password: "smoketest1"})
	if err != nil {
		fail("login failed: %v\n", err)
		os.Exit(1)
	}
	ok("   user_id=%d\n", login.UserId)

	step("3. Creating session\n")
	session, err := client.CreateSession(ctx, nil)
	if err != nil {
		fail("create session failed: %v\n", err)
		os.Exit(1)
	}
	ok("   id=%d title=%q\n", session.Id, session.Title)

	step("4. Sending message (optimistic flow)\n")
	timeline := &apiclient.SessionTimeline{SessionID: session.Id}
	gen, err := client.SendMessage(ctx, timeline, "I want to move from QA into backend engineering. Where do I start?")
	if err != nil {
		fail("send failed: %v\n", err)
		os.Exit(1)
	}
	if gen.Degraded {
		fail("   reply degraded to fallback\n")
	}
	ok("   ai: %s\n", gen.Message.Content)

	step("5. Listing sessions\n")
	list, err := client.ListSessions(ctx, 1, 10, "")
	if err != nil {
		fail("list failed: %v\n", err)
		os.Exit(1)
	}
	for _, s := range list.Sessions {
		preview := ""
		if s.LastMessageContent != nil {
			preview = *s.LastMessageContent
		}
		fmt.Printf("   [%d] %s: %.60s\n", s.Id, s.Title, preview)
	}
	ok("Done.\n")
}
