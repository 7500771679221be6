package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/logger"
	"stars_wallet/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminBot обрабатывает команды администраторов через Telegram
type AdminBot struct {
	bot          *tgbotapi.BotAPI
	adminService *service.AdminService
	adminIDs     []int64 // Telegram ID пользователей с правами админа
	stopCh       chan struct{}
	wg           sync.WaitGroup
	log          *slog.Logger

	// Отслеживание админов, ожидающих ввода сообщения для рассылки
	broadcastPending map[int64]bool
}

// NewAdminBot создаёт нового админ бота
func NewAdminBot(token string, adminService *service.AdminService, adminIDs []int64) (*AdminBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", bot.Self.UserName)

	return &AdminBot{
		bot:              bot,
		adminService:     adminService,
		adminIDs:         adminIDs,
		stopCh:           make(chan struct{}),
		log:              log,
		broadcastPending: make(map[int64]bool),
	}, nil
}

// Start запускает прослушивание команд
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil {
				continue
			}

			// Проверка является ли пользователь админом
			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			// Проверка находится ли админ в режиме рассылки (ожидает сообщение)
			if b.broadcastPending[update.Message.From.ID] && !update.Message.IsCommand() {
				b.wg.Add(1)
				go func(msg *tgbotapi.Message) {
					defer b.wg.Done()
					b.executeBroadcast(msg)
				}(update.Message)
				continue
			}

			if !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop плавно останавливает бота
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	// Ожидание завершения обработчиков с таймаутом
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string

	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()

	case "stats":
		response = b.handleStats(ctx)

	case "user":
		response = b.handleUser(ctx, msg.CommandArguments())

	case "addstars":
		response = b.handleAddStars(ctx, msg.From.ID, msg.CommandArguments())

	case "ban":
		response = b.handleBan(ctx, msg.From.ID, msg.CommandArguments())

	case "unban":
		response = b.handleUnban(ctx, msg.From.ID, msg.CommandArguments())

	case "verify":
		response = b.handleVerify(ctx, msg.From.ID, msg.CommandArguments())

	case "limit":
		response = b.handleLimit(ctx, msg.From.ID, msg.CommandArguments())

	case "requests":
		response = b.handleRequests(ctx)

	case "approve":
		response = b.handleApprove(ctx, msg.From.ID, msg.CommandArguments())

	case "reject":
		response = b.handleReject(ctx, msg.From.ID, msg.CommandArguments())

	case "broadcast":
		response = b.handleBroadcastStart(msg.From.ID)

	default:
		response = "❌ Неизвестная команда. Используйте /help для списка команд."
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *AdminBot) helpMessage() string {
	return `<b>🤖 Команды администратора</b>

<b>📊 Статистика:</b>
/stats - сводка по кошельку
/user tg_id - информация о пользователе

<b>💫 Балансы:</b>
/addstars tg_id сумма - скорректировать баланс (сумма может быть отрицательной)

<b>👥 Пользователи:</b>
/ban tg_id [причина] - заблокировать
/unban tg_id - разблокировать
/verify tg_id - верифицировать
/limit tg_id сумма - лимит на перевод (0 снимает лимит)

<b>💸 Заявки на выплату:</b>
/requests - необработанные заявки
/approve id - выплатить
/reject id причина - отклонить

<b>📣 Рассылка:</b>
/broadcast - отправить сообщение всем пользователям`
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	stats, err := b.adminService.Stats(ctx)
	if err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	return fmt.Sprintf(`<b>Статистика кошелька</b>

- Пользователей: %d
- Заявок в очереди: %d`,
		stats.Users,
		stats.PendingRequests,
	)
}

func (b *AdminBot) handleUser(ctx context.Context, args string) string {
	tgID, err := parseTgID(args)
	if err != nil {
		return "Использование: /user tg_id"
	}

	user, err := b.adminService.GetUser(ctx, tgID)
	if err != nil || user == nil {
		return "Пользователь не найден"
	}

	balance, err := b.adminService.GetBalance(ctx, tgID)
	if err != nil {
		return fmt.Sprintf("Ошибка чтения баланса: %v", err)
	}

	status := "активен"
	if user.IsBanned {
		status = "заблокирован: " + user.BanReason
	}

	return fmt.Sprintf(`<b>Информация о пользователе</b>

- Telegram ID: %d
- Username: @%s
- Имя: %s
- Роль: %s
- Статус: %s
- Баланс: %d ⭐
- Регистрация: %s`,
		user.TgID,
		user.Username,
		user.FirstName,
		user.Role,
		status,
		balance,
		user.CreatedAt.Format("02.01.2006 15:04"),
	)
}

func (b *AdminBot) handleAddStars(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return "Использование: /addstars tg_id сумма [причина]"
	}

	tgID, err := parseTgID(parts[0])
	if err != nil {
		return "Неверный tg_id"
	}

	delta, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || delta == 0 {
		return "Неверная сумма"
	}

	reason := strings.Join(parts[2:], " ")
	if err := b.adminService.AdjustBalance(ctx, adminID, tgID, delta, reason); err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	balance, _ := b.adminService.GetBalance(ctx, tgID)
	return fmt.Sprintf("Баланс скорректирован на %+d ⭐. Новый баланс: %d ⭐", delta, balance)
}

func (b *AdminBot) handleBan(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "Использование: /ban tg_id [причина]"
	}

	tgID, err := parseTgID(parts[0])
	if err != nil {
		return "Неверный tg_id"
	}

	reason := strings.Join(parts[1:], " ")
	if err := b.adminService.BanUser(ctx, adminID, tgID, reason); err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	return "Пользователь заблокирован"
}

func (b *AdminBot) handleUnban(ctx context.Context, adminID int64, args string) string {
	tgID, err := parseTgID(args)
	if err != nil {
		return "Использование: /unban tg_id"
	}

	if err := b.adminService.UnbanUser(ctx, adminID, tgID); err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	return "Пользователь разблокирован"
}

func (b *AdminBot) handleVerify(ctx context.Context, adminID int64, args string) string {
	tgID, err := parseTgID(args)
	if err != nil {
		return "Использование: /verify tg_id"
	}

	if err := b.adminService.VerifyUser(ctx, adminID, tgID, true); err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	return "Пользователь верифицирован"
}

func (b *AdminBot) handleLimit(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "Использование: /limit tg_id сумма (0 снимает лимит)"
	}

	tgID, err := parseTgID(parts[0])
	if err != nil {
		return "Неверный tg_id"
	}

	limit, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || limit < 0 {
		return "Неверная сумма"
	}

	if err := b.adminService.SetWalletLimit(ctx, adminID, tgID, limit > 0, limit); err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	if limit == 0 {
		return "Лимит кошелька снят"
	}
	return fmt.Sprintf("Лимит на перевод: %d ⭐", limit)
}

func (b *AdminBot) handleRequests(ctx context.Context) string {
	requests, err := b.adminService.PendingRequests(ctx, 20)
	if err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	if len(requests) == 0 {
		return "Нет необработанных заявок"
	}

	var sb strings.Builder
	sb.WriteString("<b>Заявки на выплату</b>\n")
	for _, r := range requests {
		sb.WriteString(fmt.Sprintf(`
#%d от %d
Сумма: %d ⭐
Реквизиты: <code>%s</code>
/approve %d | /reject %d причина
`, r.ID, r.TgID, r.AmountStars, r.Payload, r.ID, r.ID))
	}
	return sb.String()
}

func (b *AdminBot) handleApprove(ctx context.Context, adminID int64, args string) string {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "Использование: /approve id"
	}

	request, err := b.adminService.ApproveRequest(ctx, adminID, id)
	if err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	return fmt.Sprintf("Заявка #%d выплачена: %d ⭐ пользователю %d", request.ID, request.AmountStars, request.TgID)
}

func (b *AdminBot) handleReject(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "Использование: /reject id причина"
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "Неверный id заявки"
	}

	reason := strings.Join(parts[1:], " ")
	request, err := b.adminService.RejectRequest(ctx, adminID, id, reason)
	if err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	return fmt.Sprintf("Заявка #%d отклонена", request.ID)
}

func (b *AdminBot) handleBroadcastStart(adminID int64) string {
	b.broadcastPending[adminID] = true
	return "Отправьте сообщение для рассылки. /cancel для отмены"
}

func (b *AdminBot) executeBroadcast(msg *tgbotapi.Message) {
	adminID := msg.From.ID
	chatID := msg.Chat.ID

	// Отмена если пользователь отправил /cancel
	if msg.Text == "/cancel" {
		delete(b.broadcastPending, adminID)
		reply := tgbotapi.NewMessage(chatID, "Рассылка отменена")
		b.bot.Send(reply)
		return
	}

	delete(b.broadcastPending, adminID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	b.log.Info("starting broadcast", "admin_id", adminID)

	userIDs, err := b.adminService.AllUserTgIDs(ctx)
	if err != nil {
		b.log.Error("failed to get user IDs", "error", err)
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err))
		b.bot.Send(reply)
		return
	}

	if len(userIDs) == 0 {
		reply := tgbotapi.NewMessage(chatID, "Нет пользователей для рассылки")
		b.bot.Send(reply)
		return
	}

	progressMsg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Начинаю рассылку %d пользователям...", len(userIDs)))
	b.bot.Send(progressMsg)

	sent := 0
	failed := 0
	blocked := 0

	for _, tgID := range userIDs {
		textMsg := tgbotapi.NewMessage(tgID, msg.Text)
		textMsg.ParseMode = "HTML"
		textMsg.DisableWebPagePreview = true

		if _, err := b.bot.Send(textMsg); err != nil {
			if strings.Contains(err.Error(), "blocked") || strings.Contains(err.Error(), "deactivated") {
				blocked++
			} else {
				b.log.Error("failed to send broadcast", "tg_id", tgID, "error", err)
			}
			failed++
		} else {
			sent++
		}

		// Ограничение скорости - 20 сообщений в секунду
		time.Sleep(50 * time.Millisecond)
	}

	b.log.Info("broadcast complete", "sent", sent, "failed", failed, "blocked", blocked)

	result := fmt.Sprintf(`<b>Рассылка завершена</b>

Отправлено: %d
Не доставлено: %d
Заблокировали бота: %d`, sent, failed-blocked, blocked)

	reply := tgbotapi.NewMessage(chatID, result)
	reply.ParseMode = "HTML"
	b.bot.Send(reply)
}

// SendNotification отправляет произвольное сообщение пользователю
func (b *AdminBot) SendNotification(tgID int64, message string) error {
	msg := tgbotapi.NewMessage(tgID, message)
	msg.ParseMode = "HTML"
	_, err := b.bot.Send(msg)
	return err
}

// NotifyAdminsNewRequest уведомляет всех админов о новой заявке на выплату
func (b *AdminBot) NotifyAdminsNewRequest(req *domain.PaymentRequest) {
	message := fmt.Sprintf(`<b>Новая заявка на выплату!</b>

Пользователь: %d
Сумма: %d ⭐
Реквизиты: <code>%s</code>

ID: #%d

/approve %d - выплатить
/reject %d причина - отклонить`,
		req.TgID, req.AmountStars, req.Payload, req.ID, req.ID, req.ID)

	for _, adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = "HTML"
		if _, err := b.bot.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}

// NotifyAdminsDeposit уведомляет админов о новом TON депозите
func (b *AdminBot) NotifyAdminsDeposit(tgID int64, amountTON float64, stars int64, txHash string) {
	message := fmt.Sprintf(`<b>Новый TON депозит</b>

Пользователь: %d
Сумма: %.4f TON → %d ⭐
TX: <code>%s</code>`,
		tgID, amountTON, stars, txHash)

	for _, adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = "HTML"
		if _, err := b.bot.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}

func parseTgID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("неверный tg_id")
	}
	return id, nil
}
