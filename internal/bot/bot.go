package bot

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/internal/logger"
	"github.com/example/wordmastery/internal/practice"
	"github.com/example/wordmastery/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Practice is the learning engine used by the bot
type Practice interface {
	Register(ctx context.Context, l *models.Learner) error
	Next(ctx context.Context, learnerID int64) (*practice.Entry, error)
	NewItems(ctx context.Context, learnerID int64, limit int) ([]models.VocabularyItem, error)
	MultipleChoice(ctx context.Context, learnerID, itemID int64, n int, rnd *rand.Rand) (*practice.Question, error)
	SubmitAnswer(ctx context.Context, sub practice.Submission) (*practice.Outcome, error)
	AnswerChoice(ctx context.Context, learnerID int64, q *practice.Question, idx int, latency time.Duration) (*practice.Outcome, error)
	Stats(ctx context.Context, learnerID int64) (*practice.Stats, error)
}

// ExampleGenerator writes example sentences and short texts for vocabulary items
type ExampleGenerator interface {
	GenerateExampleWithFallback(ctx context.Context, item models.VocabularyItem) string
	GenerateTextWithWords(ctx context.Context, items []models.VocabularyItem) (string, error)
}

// Checker runs an immediate reminder check for one learner
type Checker interface {
	RunManualCheck(ctx context.Context, learner models.Learner) error
}

// sender is the part of the Telegram API the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// prompt is a question awaiting the learner's answer
type prompt struct {
	Item              models.VocabularyItem
	Activity          models.ActivityKind
	ExpectTranslation bool
	Question          *practice.Question
	AskedAt           time.Time
}

// Bot represents the Telegram bot application
type Bot struct {
	api      sender
	token    string
	practice Practice
	examples ExampleGenerator
	checker  Checker
	log      *logger.Logger
	now      func() time.Time
	rnd      *rand.Rand

	mu      sync.Mutex
	pending map[int64]*prompt
}

// New creates a new bot instance. examples may be nil when AI is disabled.
func New(token string, p Practice, examples ExampleGenerator, log *logger.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Bot{
		token:    token,
		practice: p,
		examples: examples,
		log:      log,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		pending:  make(map[int64]*prompt),
	}, nil
}

// SetChecker makes /start run a reminder check for the new learner
func (b *Bot) SetChecker(c Checker) {
	b.checker = c
}

// Start connects to Telegram and handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	// Initialize the bot with the given token
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return errors.Wrap(err, "unable to create bot")
	}
	b.api = botAPI
	b.log.Info("Authorized on account", "username", botAPI.Self.UserName)

	// Set up the update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := botAPI.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			b.log.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(_ context.Context, learner models.Learner, count int) error {
	if b.api == nil {
		return errors.New("bot is not started")
	}
	chatID := learner.ChatID
	if chatID == 0 {
		chatID = learner.ID
	}

	wordForm := "words"
	if count == 1 {
		wordForm = "word"
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("You have %d %s to review! Tap Review to start.", count, wordForm))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("Error sending reminder", "learner", learner.ID, "error", err)
		return errors.Wrap(err, "failed to send reminder")
	}
	b.log.Info("Sent reminder", "learner", learner.ID, "count", count)
	return nil
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Review", CallbackData: "review"},
			{Text: "🔤 Quiz", CallbackData: "quiz"},
		},
		{
			{Text: "🆕 New Words", CallbackData: "new"},
			{Text: "📊 Statistics", CallbackData: "stats"},
		},
	}
}

func (b *Bot) setPending(userID int64, p *prompt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[userID] = p
}

// takePending removes and returns the learner's open prompt
func (b *Bot) takePending(userID int64) *prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.pending[userID]
	delete(b.pending, userID)
	return p
}

// takeChoice removes and returns the learner's open quiz when option idx of
// itemID answers it, and returns nil otherwise
func (b *Bot) takeChoice(userID, itemID int64, idx int) *prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.pending[userID]
	if p == nil || p.Question == nil || p.Item.ID != itemID || p.Question.Answer(idx) == "" {
		return nil
	}
	delete(b.pending, userID)
	return p
}

func (b *Bot) peekPending(userID int64) *prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[userID]
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("Failed to send message", "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
