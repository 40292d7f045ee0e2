package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/app"
	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/store"
)

// Gateway is the event side of the chat platform: a websocket stream of
// interaction envelopes dispatched into the orchestrator. One event is
// handled at a time, preserving per-session arrival order.
type Gateway struct {
	URL        string
	Token      string
	ReadLimit  int64
	PingPeriod time.Duration

	Client   *Client
	Orch     *app.Orchestrator
	Accounts *app.AccountService
	Links    *store.Links

	limiter *ActionLimiter
}

func NewGateway(url, token string, readLimit int64, pingPeriod time.Duration, client *Client, orch *app.Orchestrator, accounts *app.AccountService, links *store.Links) *Gateway {
	return &Gateway{
		URL:        url,
		Token:      token,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		Client:     client,
		Orch:       orch,
		Accounts:   accounts,
		Links:      links,
		limiter:    NewActionLimiter(8, 10*time.Second),
	}
}

// Run keeps the gateway connection alive until ctx is canceled,
// reconnecting with a flat backoff on failure.
func (g *Gateway) Run(ctx context.Context) {
	for {
		if err := g.connectAndRead(ctx); err != nil {
			log.Error().Err(err).Str("module", "chat.gateway").Msg("gateway connection lost")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (g *Gateway) connectAndRead(ctx context.Context) error {
	header := map[string][]string{"Authorization": {"Bot " + g.Token}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.URL, header)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()
	conn.SetReadLimit(g.ReadLimit)
	log.Info().Str("module", "chat.gateway").Str("url", g.URL).Msg("gateway connected")

	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go g.pingLoop(pingCtx, conn)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			_, data, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("gateway read: %w", err)
			}
			g.handleEvent(ctx, data)
		}
	}
}

func (g *Gateway) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(g.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Warn().Err(err).Str("module", "chat.gateway").Msg("ping failed")
				return
			}
		}
	}
}

type actorInfo struct {
	ID    string   `json:"id"`
	Tag   string   `json:"tag"`
	Roles []string `json:"roles"`
}

// eventActor adapts the envelope's actor block to core.Actor.
type eventActor struct{ info actorInfo }

func (a eventActor) ID() domain.UserID { return domain.UserID(a.info.ID) }

func (a eventActor) HasRole(roleID string) bool {
	for _, r := range a.info.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

type event struct {
	Type      string            `json:"type"` // "command" | "button" | "select"
	ID        string            `json:"id"`   // interaction id
	Name      string            `json:"name"`
	CustomID  string            `json:"custom_id"`
	Values    []string          `json:"values"`
	Actor     actorInfo         `json:"actor"`
	ChannelID string            `json:"channel_id"`
	MessageID string            `json:"message_id"`
	Options   map[string]string `json:"options"`
}

func (g *Gateway) handleEvent(ctx context.Context, data []byte) {
	var ev event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Error().Err(err).Str("module", "chat.gateway").Msg("bad event json")
		return
	}

	actor := eventActor{info: ev.Actor}
	if ev.Type != "command" && !g.limiter.Allow(actor.ID()) {
		g.notify(ctx, actor.ID(), "Slow down a little and try again.")
		return
	}

	switch ev.Type {
	case "command":
		g.handleCommand(ctx, actor, &ev)
	case "button":
		g.handleButton(ctx, actor, &ev)
	case "select":
		g.handleSelect(ctx, actor, &ev)
	default:
		log.Warn().Str("module", "chat.gateway").Str("type", ev.Type).Msg("unknown event")
	}
}

func (g *Gateway) handleCommand(ctx context.Context, actor eventActor, ev *event) {
	channel := domain.ChannelID(ev.ChannelID)
	switch ev.Name {
	case "scrim", "aram-scrim":
		mode := domain.ModeStandard
		if ev.Name == "aram-scrim" {
			mode = domain.ModeAram
		}
		_, err := g.Orch.StartRecruitment(ctx, actor, channel, mode, ev.Options["time"])
		if errors.Is(err, app.ErrNotAuthorized) {
			g.notify(ctx, actor.ID(), "Recruitment can only be started by staff. 🤍")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("module", "chat.gateway").Msg("start recruitment failed")
			g.notify(ctx, actor.ID(), "Could not start the recruitment, try again.")
		}

	case "scrim-time":
		id, ok := g.Orch.Registry.LatestInChannel(channel)
		if !ok {
			g.notify(ctx, actor.ID(), "No recruitment to edit in this channel.")
			return
		}
		err := g.Orch.ChangeTime(ctx, actor, id, ev.Options["time"])
		switch {
		case errors.Is(err, app.ErrNotAuthorized):
			g.notify(ctx, actor.ID(), "Ask staff to change the scrim time. 🛎")
		case err != nil:
			g.notify(ctx, actor.ID(), "Could not change the time.")
		default:
			g.notify(ctx, actor.ID(), fmt.Sprintf("Start time changed to **%s**.", ev.Options["time"]))
		}

	case "remove-participant", "remove-last-call":
		id, ok := g.Orch.Registry.LatestInChannel(channel)
		if !ok {
			g.notify(ctx, actor.ID(), "No recruitment in this channel.")
			return
		}
		target := domain.UserID(ev.Options["user"])
		st, err := g.Orch.ForceRemove(ctx, actor, id, target)
		switch {
		case errors.Is(err, app.ErrNotAuthorized):
			g.notify(ctx, actor.ID(), "Only staff can remove participants.")
		case err != nil:
			g.notify(ctx, actor.ID(), "Removal failed.")
		case st == core.StatusNotPresent:
			g.notify(ctx, actor.ID(), "That user is not on any list.")
		default:
			g.notify(ctx, actor.ID(), fmt.Sprintf("Removed <@%s>.", target))
		}

	case "register":
		g.handleRegister(ctx, actor, ev)

	case "register-alt":
		err := g.Accounts.LinkAlt(ctx, actor.ID(), ev.Options["alt"], ev.Options["main"])
		switch {
		case errors.Is(err, app.ErrNoAccount):
			g.notify(ctx, actor.ID(), "Register a main account first.")
		case errors.Is(err, app.ErrMainMismatch):
			g.notify(ctx, actor.ID(), "Your main account name does not match.")
		case errors.Is(err, app.ErrAltExists):
			g.notify(ctx, actor.ID(), "That alt is already linked.")
		case err != nil:
			g.notify(ctx, actor.ID(), "Could not link the alt.")
		default:
			g.notify(ctx, actor.ID(), fmt.Sprintf("Alt **%s** linked! ✅", ev.Options["alt"]))
		}

	case "delete-account":
		err := g.Accounts.Delete(ctx, actor.ID())
		if errors.Is(err, app.ErrNoAccount) {
			g.notify(ctx, actor.ID(), "You have no registered account.")
			return
		}
		if err != nil {
			g.notify(ctx, actor.ID(), "Could not delete your account data.")
			return
		}
		g.notify(ctx, actor.ID(), "Your account data has been deleted. 🗑️")

	case "link-room":
		matchID := ev.Options["match_id"]
		if matchID == "" {
			matchID = uuid.NewString()
		}
		if err := g.Links.Put(matchID, ev.Options["room_code"]); err != nil {
			log.Error().Err(err).Str("module", "chat.gateway").Msg("link-room failed")
			g.notify(ctx, actor.ID(), "Could not save the link.")
			return
		}
		g.notify(ctx, actor.ID(), fmt.Sprintf("Linked match **%s** ↔ room **%s**. 🔗", matchID, ev.Options["room_code"]))

	default:
		log.Warn().Str("module", "chat.gateway").Str("name", ev.Name).Msg("unknown command")
	}
}

func (g *Gateway) handleRegister(ctx context.Context, actor eventActor, ev *event) {
	acc, err := g.Accounts.Register(ctx, actor.ID(), ev.Actor.Tag, ev.Options["riot_id"])
	switch {
	case errors.Is(err, domain.ErrRiotNameFormat), errors.Is(err, domain.ErrRiotNameEmpty), errors.Is(err, domain.ErrRiotNameTooLong):
		g.notify(ctx, actor.ID(), "Invalid riot id, use name#tag (e.g. Dawn#KR1).")
	case errors.Is(err, app.ErrAccountNotFound):
		g.notify(ctx, actor.ID(), "That account does not exist, check the name.")
	case errors.Is(err, app.ErrAlreadyRegistered):
		g.notify(ctx, actor.ID(), fmt.Sprintf("You already registered **%s**.", acc.RiotName))
	case err != nil:
		log.Error().Err(err).Str("module", "chat.gateway").Msg("register failed")
		g.notify(ctx, actor.ID(), "Registration failed, try again later.")
	default:
		g.notify(ctx, actor.ID(), fmt.Sprintf("Registered as **%s**! ✅", acc.RiotName))
	}
}

func (g *Gateway) handleButton(ctx context.Context, actor eventActor, ev *event) {
	id := domain.MessageID(ev.MessageID)
	switch ev.CustomID {
	case buttonJoin:
		// Joining happens through the settings panel; the button only
		// opens it.
		panel := SettingsPanel(id, actor.ID())
		if err := g.Client.RespondPanel(ctx, ev.ID, "Pick your **main/sub lanes and tier** to join! 🎮", panel); err != nil {
			log.Error().Err(err).Str("module", "chat.gateway").Msg("panel respond failed")
		}

	case buttonLeave:
		if _, err := g.Orch.Leave(ctx, id, actor.ID()); errors.Is(err, app.ErrUnknownSession) {
			g.notify(ctx, actor.ID(), "This recruitment is no longer tracked.")
		}

	case buttonLastCall:
		st, err := g.Orch.LastCall(ctx, id, actor.ID())
		if errors.Is(err, app.ErrUnknownSession) {
			g.notify(ctx, actor.ID(), "This recruitment is no longer tracked.")
			return
		}
		if st == core.StatusNotAParticipant {
			g.notify(ctx, actor.ID(), "Only current roster members can declare last call.")
		}

	default:
		log.Warn().Str("module", "chat.gateway").Str("custom_id", ev.CustomID).Msg("unknown button")
	}
}

func (g *Gateway) handleSelect(ctx context.Context, actor eventActor, ev *event) {
	kind, session, owner, ok := parsePanelID(ev.CustomID)
	if !ok {
		log.Warn().Str("module", "chat.gateway").Str("custom_id", ev.CustomID).Msg("unknown select")
		return
	}
	if owner != actor.ID() {
		g.notify(ctx, actor.ID(), "This menu belongs to someone else. ❌")
		return
	}
	if len(ev.Values) == 0 {
		return
	}

	var upd app.AttrUpdate
	switch kind {
	case selectLane:
		lane := domain.Lane(ev.Values[0])
		upd.Main = &lane
	case selectSubLane:
		lanes := []domain.Lane{}
		for _, v := range ev.Values {
			if v == "none" {
				lanes = lanes[:0]
				break
			}
			lanes = append(lanes, domain.Lane(v))
		}
		upd.Sub = lanes
	case selectTier:
		tier := domain.Tier(ev.Values[0])
		upd.Tier = &tier
	case selectBand:
		band := domain.TierBand(ev.Values[0])
		upd.Band = &band
	default:
		log.Warn().Str("module", "chat.gateway").Str("kind", kind).Msg("unknown select kind")
		return
	}

	st, admitted, err := g.Orch.ConfigureAttributes(ctx, session, actor.ID(), upd, true)
	if errors.Is(err, app.ErrUnknownSession) {
		g.notify(ctx, actor.ID(), "This recruitment is no longer tracked.")
		return
	}
	if admitted {
		if st == core.StatusWaitlisted {
			g.notify(ctx, actor.ID(), "You are in! Roster band is full, so you joined the waitlist. ⏳")
		} else {
			g.notify(ctx, actor.ID(), "You joined the scrim! ✅")
		}
		return
	}
	if st == core.StatusCapacityExceeded {
		g.notify(ctx, actor.ID(), "The sheet is full (40 players). Please use a new sheet.")
	}
}

func (g *Gateway) notify(ctx context.Context, uid domain.UserID, text string) {
	if err := g.Client.Notify(ctx, uid, text); err != nil {
		log.Warn().Err(err).Str("module", "chat.gateway").Str("user", string(uid)).Msg("notify failed")
	}
}
