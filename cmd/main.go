package main

import (
	"log"
	"net/http"

	"github.com/encorelive/encore-backend/internal/api/conversations"
	groupchatapi "github.com/encorelive/encore-backend/internal/api/groupchat"
	"github.com/encorelive/encore-backend/internal/api/moderationapi"
	"github.com/encorelive/encore-backend/internal/api/typingapi"
	"github.com/encorelive/encore-backend/internal/chat"
	"github.com/encorelive/encore-backend/internal/config"
	"github.com/encorelive/encore-backend/internal/entitlement"
	"github.com/encorelive/encore-backend/internal/groupchat"
	"github.com/encorelive/encore-backend/internal/middleware"
	"github.com/encorelive/encore-backend/internal/moderation"
	"github.com/encorelive/encore-backend/internal/storage/memory"
	"github.com/encorelive/encore-backend/internal/storage/postgres"
	"github.com/encorelive/encore-backend/internal/storage/valkeystore"
	"github.com/encorelive/encore-backend/internal/typing"
	"github.com/encorelive/encore-backend/internal/ws"
	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	var (
		convStore   chat.ConversationStore
		convBlocker moderation.ConversationBlocker
		groupStore  groupchat.MessageStore
		modStore    moderation.Store
		eventStore  chat.EventStore
		orders      entitlement.OrderStore
		guestlist   entitlement.GuestlistStore
		ownership   entitlement.OwnershipStore
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		cs := postgres.NewConversationStore(db)
		gs := postgres.NewGrantStore(db)
		convStore, convBlocker = cs, cs
		groupStore = postgres.NewGroupMessageStore(db)
		modStore = postgres.NewModerationStore(db)
		eventStore = postgres.NewEventStore(db)
		orders, guestlist, ownership = gs, gs, gs
	} else {
		log.Println("POSTGRES_DSN not set, using in-memory stores")
		cs := memory.NewConversationStore()
		gs := memory.NewGrantStore()
		convStore, convBlocker = cs, cs
		groupStore = memory.NewGroupMessageStore()
		modStore = memory.NewModerationStore()
		eventStore = memory.NewEventStore()
		orders, guestlist, ownership = gs, gs, gs
	}

	var leases typing.LeaseStore
	if cfg.ValkeyAddr != "" {
		vs, err := valkeystore.NewLeaseStore(cfg.ValkeyAddr)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer vs.Close()
		leases = vs
	} else {
		log.Println("VALKEY_ADDR not set, using in-memory typing leases")
		leases = memory.NewLeaseStore()
	}

	hub := ws.NewHub()
	go hub.Run()

	resolver := entitlement.NewResolver(orders, guestlist, ownership)
	ledger := moderation.NewLedger(modStore, convBlocker)
	chatService := chat.NewService(convStore, eventStore, ledger, resolver)
	groupService := groupchat.NewService(groupStore, eventStore, ledger, resolver)
	presence := typing.NewPresence(leases, hub)

	router := mux.NewRouter()
	conversations.RegisterRoutes(router, &conversations.Handler{Service: chatService, Presence: presence, Hub: hub})
	groupchatapi.RegisterRoutes(router, &groupchatapi.Handler{Service: groupService, Presence: presence, Hub: hub})
	moderationapi.RegisterRoutes(router, &moderationapi.Handler{Ledger: ledger, Entitlements: resolver})
	typingapi.RegisterRoutes(router, &typingapi.Handler{Presence: presence})

	handler := middleware.CORS(cfg.AllowedOrigin)(
		middleware.Timeout(cfg.StoreTimeout)(
			middleware.Auth(cfg.JWTSecret)(router)))

	log.Printf("Server started at :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
