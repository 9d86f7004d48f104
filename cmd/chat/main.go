package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"docschat/internal/chatclient"
	"docschat/internal/logging"
	"docschat/internal/tui"
)

var cli struct {
	URL      string        `help:"Chat endpoint URL." default:"http://localhost:5000/api/chat" env:"CHAT_API_URL"`
	Message  string        `help:"Ask a single question, print the reply and exit." short:"m"`
	Timeout  time.Duration `help:"Request timeout; 0 waits for the reply indefinitely." default:"0"`
	LogFile  string        `help:"Write client logs to this file." type:"path" env:"CHAT_LOG_FILE"`
	LogLevel string        `help:"Log level." default:"info" enum:"debug,info,warn,error"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("chat"),
		kong.Description("Chat with the documentation assistant."),
	)

	logger, err := logging.NewFileOnly(cli.LogLevel, cli.LogFile)
	kctx.FatalIfErrorf(err)
	defer logger.Sync()

	client := chatclient.NewClient(cli.URL, &http.Client{Timeout: cli.Timeout})
	session := chatclient.NewSession()

	if cli.Message != "" {
		if !session.Exchange(context.Background(), client, cli.Message) {
			kctx.Fatalf("message is empty")
		}
		msgs := session.Messages()
		fmt.Println(msgs[len(msgs)-1].Content)
		return
	}

	logger.Info("starting chat client", zap.String("url", cli.URL))
	program := tea.NewProgram(tui.New(session, client, "Docs chat", logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}
