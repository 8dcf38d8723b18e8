package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/events"
	"ecommerce-backend/internal/httpserver"
	"ecommerce-backend/internal/llm"
	cartrepo "ecommerce-backend/internal/repository/cart"
	categoryrepo "ecommerce-backend/internal/repository/category"
	chatrepo "ecommerce-backend/internal/repository/chat"
	"ecommerce-backend/internal/repository/memory"
	orderrepo "ecommerce-backend/internal/repository/order"
	paymentrepo "ecommerce-backend/internal/repository/payment"
	productrepo "ecommerce-backend/internal/repository/product"
	userrepo "ecommerce-backend/internal/repository/user"
	cartsvc "ecommerce-backend/internal/service/cart"
	categorysvc "ecommerce-backend/internal/service/category"
	chatsvc "ecommerce-backend/internal/service/chat"
	ordersvc "ecommerce-backend/internal/service/order"
	paymentsvc "ecommerce-backend/internal/service/payment"
	productsvc "ecommerce-backend/internal/service/product"
	usersvc "ecommerce-backend/internal/service/user"
)

type repositories struct {
	products   productrepo.Repository
	categories categoryrepo.Repository
	users      userrepo.Repository
	carts      cartrepo.Repository
	orders     orderrepo.Repository
	payments   paymentrepo.Repository
	chats      chatrepo.Repository
}

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	var (
		repos  repositories
		pinger httpserver.Pinger
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Printf("using in-memory store, data is lost on restart")
		store := memory.New()
		repos = repositories{
			products:   store.Products(),
			categories: store.Categories(),
			users:      store.Users(),
			carts:      store.Carts(),
			orders:     store.Orders(),
			payments:   store.Payments(),
			chats:      store.Chats(),
		}
	case config.StoreDriverPostgres:
		dbpool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer dbpool.Close()
		pinger = dbpool
		repos = repositories{
			products:   productrepo.NewPostgres(dbpool, logger),
			categories: categoryrepo.NewPostgres(dbpool, logger),
			users:      userrepo.NewPostgres(dbpool, logger),
			carts:      cartrepo.NewPostgres(dbpool, logger),
			orders:     orderrepo.NewPostgres(dbpool, logger),
			payments:   paymentrepo.NewPostgres(dbpool, logger),
			chats:      chatrepo.NewPostgres(dbpool, logger),
		}
	default:
		logger.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		defer kp.Close()
		publisher = kp
		logger.Printf("publishing events to kafka brokers=%v", cfg.KafkaBrokers)
	} else {
		publisher = events.NewLogPublisher(cfg.KafkaTopicPrefix, logger)
	}
	notifier := events.NewNotifier(publisher, logger)

	var completer chatsvc.Completer
	client, err := llm.New(llm.Config{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Timeout: cfg.Chat.Timeout,
	})
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		logger.Printf("CHAT_API_KEY not set, chat assistant disabled")
	case err != nil:
		logger.Fatalf("init chat client: %v", err)
	default:
		completer = client
	}

	deps := httpserver.Deps{
		CartSvc:     cartsvc.New(repos.carts, repos.products, repos.users, logger),
		OrderSvc:    ordersvc.New(repos.orders, repos.carts, repos.users, repos.payments, notifier, logger),
		PaymentSvc:  paymentsvc.New(repos.payments, repos.orders, paymentsvc.NewSimulatedGateway(cfg.PaymentSuccessRate), notifier, cfg.DefaultCurrency, logger),
		ProductSvc:  productsvc.New(repos.products, repos.categories, logger),
		CategorySvc: categorysvc.New(repos.categories),
		UserSvc:     usersvc.New(repos.users, logger),
		ChatSvc:     chatsvc.New(repos.chats, repos.users, completer, cfg.Chat.HistoryTurns, logger),
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, pinger, deps, cfg.CORSAllowedOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s store=%s", cfg.HTTPAddr, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
