package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/infra/cache"
	"github.com/xavierca1/ligue-crm/internal/infra/database"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"github.com/xavierca1/ligue-crm/internal/infra/mail"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/kanban"
	"github.com/xavierca1/ligue-crm/internal/usecase"
	"go.uber.org/zap"
)

// App junta repositórios, caches, clientes e use cases. A API e o crmctl
// montam a mesma coisa; só a API liga o RabbitMQ.
type App struct {
	Config config.Config
	DB     *sql.DB
	Rabbit *queue.RabbitMQ

	Funnels *database.FunnelRepository
	Stages  *cache.StageDirectory
	Leads   *cache.LeadCache

	Automation *automation.Client
	Sessions   *kanban.Registry

	LoadBoard     *usecase.LoadBoardUseCase
	ListLeads     *usecase.ListLeadsUseCase
	MoveLead      *usecase.MoveLeadUseCase
	StageMessages *usecase.StageMessagesUseCase
	Dispatch      *usecase.DispatchMessagesUseCase
	Cashback      *usecase.CashbackUseCase
	Users         *usecase.UsersUseCase
	Instances     *usecase.InstancesUseCase
}

type Options struct {
	WithQueue bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no banco: %w", err)
	}

	a := &App{Config: cfg, DB: db}

	var producer usecase.QueueProducerInterface
	if opts.WithQueue && cfg.RabbitMQURL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.Rabbit = rmq
		producer = queue.NewProducer(rmq.Ch)
	} else if opts.WithQueue {
		zap.L().Warn("RABBITMQ_URL not set, stage messages will not be dispatched")
	}

	// 1. Repositórios
	a.Funnels = database.NewFunnelRepository(db)
	leadRepo := database.NewLeadRepository(db)
	messageRepo := database.NewStageMessageRepository(db)
	scheduledRepo := database.NewScheduledMessageRepository(db)

	// 2. Caches
	a.Stages = cache.NewStageDirectory(database.NewStageRepository(db), cfg.StageTTL)
	a.Leads = cache.NewLeadCache(leadRepo, cfg.LeadTTL)
	a.Sessions = kanban.NewRegistry(cfg.SessionTTL)

	// 3. Integrações
	a.Automation = automation.NewClient(cfg.Automation.BaseURL, cfg.Automation.Token, cfg.Automation.Paths)

	var emailService usecase.EmailService
	if cfg.Mail.Host != "" {
		emailService = mail.NewEmailSender(
			cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.LoginURL,
		)
	}

	// 4. UseCases
	a.LoadBoard = usecase.NewLoadBoardUseCase(a.Funnels, a.Stages, a.Leads)
	a.ListLeads = usecase.NewListLeadsUseCase(a.Funnels, a.Stages, a.Leads)
	a.MoveLead = usecase.NewMoveLeadUseCase(a.Funnels, a.Stages, a.Leads, a.Automation, producer)
	a.StageMessages = usecase.NewStageMessagesUseCase(messageRepo, a.Stages)
	a.Dispatch = usecase.NewDispatchMessagesUseCase(leadRepo, messageRepo, scheduledRepo, a.Automation)
	a.Cashback = usecase.NewCashbackUseCase(database.NewCashbackRepository(db))
	a.Users = usecase.NewUsersUseCase(database.NewUserRepository(db), a.Automation, emailService)
	a.Instances = usecase.NewInstancesUseCase(database.NewInstanceRepository(db), a.Automation)

	return a, nil
}

func (a *App) Close() {
	if a.Rabbit != nil {
		a.Rabbit.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
