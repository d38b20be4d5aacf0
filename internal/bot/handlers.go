package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/internal/evaluator"
	"github.com/example/wordmastery/internal/practice"
	"github.com/example/wordmastery/pkg/models"
)

const (
	quizOptions  = 4
	newWordsShow = 5
	textWords    = 5
	quizPrefix   = "quiz:"
)

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.handleAnswer(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.log.Error("Failed to handle update", "update", update.UpdateID, "error", err)
	}
}

// HandleCommand processes bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	userID, chatID := message.From.ID, message.Chat.ID
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "review":
		return b.handleReview(ctx, userID, chatID)
	case "quiz":
		return b.handleQuiz(ctx, userID, chatID)
	case "new":
		return b.handleNewWords(ctx, userID, chatID)
	case "stats":
		return b.handleStats(ctx, userID, chatID)
	case "example":
		return b.handleExample(ctx, userID, chatID)
	case "text":
		return b.handleText(ctx, userID, chatID)
	default:
		return b.handleUnknownCommand(message)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	learner := &models.Learner{
		ID:       message.From.ID,
		ChatID:   message.Chat.ID,
		Username: message.From.UserName,
		Language: message.From.LanguageCode,
	}
	if err := b.practice.Register(ctx, learner); err != nil {
		return err
	}
	if b.checker != nil {
		if err := b.checker.RunManualCheck(ctx, *learner); err != nil {
			b.log.Warn("Reminder check failed", "learner", learner.ID, "error", err)
		}
	}

	welcomeText := `Welcome! 🎓

Available commands:
/review - Practice the next due word
/quiz - Multiple choice question
/new - Words you haven't practiced yet
/stats - Show your statistics
/example - Example sentence for the current word
/text - Short text with your new words`

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.send(msg)
	return nil
}

// handleReview asks the learner to type the term for its translation
func (b *Bot) handleReview(ctx context.Context, userID, chatID int64) error {
	entry, err := b.practice.Next(ctx, userID)
	if errors.Is(err, practice.ErrNothingToPractice) {
		b.reply(chatID, "Nothing to review right now. 🎉")
		return nil
	}
	if err != nil {
		return err
	}

	b.setPending(userID, &prompt{Item: entry.Item, Activity: models.Typing, AskedAt: b.now()})
	b.reply(chatID, fmt.Sprintf("✍️ Translate: %s", entry.Item.Translation))
	return nil
}

// handleQuiz sends a recognition question with inline answer buttons
func (b *Bot) handleQuiz(ctx context.Context, userID, chatID int64) error {
	q, err := b.practice.MultipleChoice(ctx, userID, 0, quizOptions, b.newRand())
	if errors.Is(err, practice.ErrNothingToPractice) {
		b.reply(chatID, "Nothing to practice right now. 🎉")
		return nil
	}
	if err != nil {
		return err
	}

	b.setPending(userID, &prompt{
		Item:              q.Item,
		Activity:          models.MultipleChoice,
		ExpectTranslation: true,
		Question:          q,
		AskedAt:           b.now(),
	})

	buttons := make([][]MenuButton, 0, len(q.Options))
	for i, opt := range q.Options {
		buttons = append(buttons, []MenuButton{{
			Text:         opt,
			CallbackData: fmt.Sprintf("%s%d:%d", quizPrefix, q.Item.ID, i),
		}})
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🔤 What does %s mean?", q.Item.Term))
	msg.ReplyMarkup = createKeyboard(buttons)
	b.send(msg)
	return nil
}

func (b *Bot) handleNewWords(ctx context.Context, userID, chatID int64) error {
	items, err := b.practice.NewItems(ctx, userID, newWordsShow)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		b.reply(chatID, "You have practiced every word in the catalog.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("🆕 New words:\n\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("• %s — %s\n", item.Term, item.Translation))
	}
	sb.WriteString("\nUse /review to practice them.")
	b.reply(chatID, sb.String())
	return nil
}

func (b *Bot) handleStats(ctx context.Context, userID, chatID int64) error {
	st, err := b.practice.Stats(ctx, userID)
	if err != nil {
		return err
	}
	b.reply(chatID, formatStats(st))
	return nil
}

func formatStats(st *practice.Stats) string {
	var sb strings.Builder
	sb.WriteString("📊 Your statistics\n\n")
	sb.WriteString(fmt.Sprintf("Words: %d\n", st.TotalItems))
	sb.WriteString(fmt.Sprintf("✅ Known: %d\n", st.Known))
	sb.WriteString(fmt.Sprintf("📖 Learning: %d\n", st.Learning))
	sb.WriteString(fmt.Sprintf("❔ Not started: %d\n", st.Unknown))
	sb.WriteString(fmt.Sprintf("⏰ Due today: %d\n", st.Due))
	sb.WriteString(fmt.Sprintf("🎯 Accuracy: %.0f%% (%d/%d)\n", st.Accuracy*100, st.CorrectAttempts, st.TotalAttempts))
	if st.Week.Total > 0 {
		sb.WriteString(fmt.Sprintf("📅 This week: %d answers, %d typed, %.0f%% correct\n",
			st.Week.Total, st.Week.Production, st.Week.Accuracy()*100))
	}
	if len(st.Strongest) > 0 {
		sb.WriteString("\nClosest to mastered:\n")
		for _, e := range st.Strongest {
			sb.WriteString(fmt.Sprintf("• %s %.0f%%\n", e.Item.Term, e.Progress.MasteryScore*100))
		}
	}
	return sb.String()
}

// handleExample sends an example sentence for the current item as a fill-in prompt
func (b *Bot) handleExample(ctx context.Context, userID, chatID int64) error {
	if b.examples == nil {
		b.reply(chatID, "Example sentences are not enabled.")
		return nil
	}

	var item models.VocabularyItem
	if p := b.peekPending(userID); p != nil {
		item = p.Item
	} else {
		entry, err := b.practice.Next(ctx, userID)
		if errors.Is(err, practice.ErrNothingToPractice) {
			b.reply(chatID, "Nothing to practice right now. 🎉")
			return nil
		}
		if err != nil {
			return err
		}
		item = entry.Item
	}

	sentence := b.examples.GenerateExampleWithFallback(ctx, item)
	b.setPending(userID, &prompt{Item: item, Activity: models.Typing, AskedAt: b.now()})
	b.reply(chatID, fmt.Sprintf("📝 Fill in the blank (%s):\n\n%s", item.Translation, practice.Cloze(sentence, item.Term)))
	return nil
}

// handleText sends a short text built from the learner's new words
func (b *Bot) handleText(ctx context.Context, userID, chatID int64) error {
	if b.examples == nil {
		b.reply(chatID, "Example sentences are not enabled.")
		return nil
	}
	items, err := b.practice.NewItems(ctx, userID, textWords)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		b.reply(chatID, "You have practiced every word in the catalog.")
		return nil
	}

	text, err := b.examples.GenerateTextWithWords(ctx, items)
	if err != nil {
		b.reply(chatID, "Couldn't write a text right now, try again later.")
		return errors.Wrap(err, "failed to generate text")
	}

	var sb strings.Builder
	sb.WriteString("📖 ")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("• %s — %s\n", item.Term, item.Translation))
	}
	b.reply(chatID, sb.String())
	return nil
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /start to see the available commands.")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.send(msg)
	return nil
}

// handleAnswer evaluates a free-text answer to the open prompt
func (b *Bot) handleAnswer(ctx context.Context, message *tgbotapi.Message) error {
	p := b.takePending(message.From.ID)
	if p == nil {
		msg := tgbotapi.NewMessage(message.Chat.ID, "I don't understand. Use /review to practice.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.send(msg)
		return nil
	}
	return b.submit(ctx, message.From.ID, message.Chat.ID, p, message.Text)
}

// HandleCallback processes button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Debug("Failed to answer callback", "error", err)
	}

	switch {
	case callback.Data == "review":
		return b.handleReview(ctx, userID, chatID)
	case callback.Data == "quiz":
		return b.handleQuiz(ctx, userID, chatID)
	case callback.Data == "new":
		return b.handleNewWords(ctx, userID, chatID)
	case callback.Data == "stats":
		return b.handleStats(ctx, userID, chatID)
	case strings.HasPrefix(callback.Data, quizPrefix):
		return b.handleQuizAnswer(ctx, userID, chatID, strings.TrimPrefix(callback.Data, quizPrefix))
	}
	return nil
}

func (b *Bot) handleQuizAnswer(ctx context.Context, userID, chatID int64, data string) error {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return errors.Errorf("malformed quiz answer %q", data)
	}
	itemID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return errors.Wrap(err, "malformed quiz item")
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return errors.Wrap(err, "malformed quiz option")
	}

	p := b.takeChoice(userID, itemID, idx)
	if p == nil {
		b.reply(chatID, "This question has expired. Use /quiz for a new one.")
		return nil
	}
	out, err := b.practice.AnswerChoice(ctx, userID, p.Question, idx, b.now().Sub(p.AskedAt))
	if err != nil {
		return err
	}
	b.reply(chatID, formatOutcome(out))
	return nil
}

func (b *Bot) submit(ctx context.Context, userID, chatID int64, p *prompt, answer string) error {
	out, err := b.practice.SubmitAnswer(ctx, practice.Submission{
		LearnerID:         userID,
		ItemID:            p.Item.ID,
		Input:             answer,
		Activity:          p.Activity,
		ExpectTranslation: p.ExpectTranslation,
		Latency:           b.now().Sub(p.AskedAt),
	})
	if err != nil {
		return err
	}
	b.reply(chatID, formatOutcome(out))
	return nil
}

func formatOutcome(out *practice.Outcome) string {
	var sb strings.Builder
	switch {
	case !out.Result.IsCorrect:
		sb.WriteString(fmt.Sprintf("❌ Not quite. The answer is: %s\n", out.Attempt.ExpectedAnswer))
	case out.Result.MatchType == evaluator.MatchFuzzy:
		sb.WriteString(fmt.Sprintf("✅ Correct! Complete form: %s\n", out.Result.CanonicalForm))
	default:
		sb.WriteString("✅ Correct!\n")
	}
	p := out.Progress
	sb.WriteString(fmt.Sprintf("\n%s — %s\n", out.Item.Term, out.Item.Translation))
	sb.WriteString(fmt.Sprintf("🔥 Streak: %d\n", p.CurrentStreak))
	sb.WriteString(fmt.Sprintf("📈 Mastery: %.0f%%\n", p.MasteryScore*100))
	sb.WriteString(fmt.Sprintf("📅 Next review: %s", p.NextReviewDate.Format("2006-01-02")))
	if p.IsKnown() {
		sb.WriteString("\n🏆 Mastered")
	}
	return sb.String()
}

// newRand derives a generator for one question
func (b *Bot) newRand() *rand.Rand {
	b.mu.Lock()
	defer b.mu.Unlock()
	return rand.New(rand.NewSource(b.rnd.Int63()))
}
