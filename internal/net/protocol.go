package net

import (
	"github.com/peterkuimelis/starwake/internal/game"
	"github.com/peterkuimelis/starwake/internal/log"
)

// Views are the game state as one participant may see it: other players'
// hands, every deck order and face-down missions or stacks stay hidden.

// StateView is the game state from one player's perspective.
type StateView struct {
	GameID     string         `json:"game_id"`
	Turn       int            `json:"turn"`
	Phase      string         `json:"phase"`
	Current    string         `json:"current"`
	You        string         `json:"you"`
	IsYourTurn bool           `json:"is_your_turn"`
	CanUndo    bool           `json:"can_undo"`
	Players    []PlayerView   `json:"players"`
	Track      []LocationView `json:"track"`
	Market     []StationView  `json:"market"`
	Hazards    int            `json:"hazard_deck"`
	Pending    *PendingView   `json:"pending,omitempty"`

	GameOver  bool            `json:"game_over,omitempty"`
	Winner    string          `json:"winner,omitempty"`
	Standings []game.Standing `json:"standings,omitempty"`

	Log []log.Entry `json:"log,omitempty"`
}

// PlayerView shows one seat.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Captain  string `json:"captain"`
	Location int    `json:"location"`
	Fame     int    `json:"fame"`
	Credits  int    `json:"credits"`
	Hazards  int    `json:"hazards"`

	Power     game.PowerState `json:"power"`
	BasePower game.PowerState `json:"base_power"`
	Moves     int             `json:"moves"`
	PlaysLeft int             `json:"plays_left"`

	HandCount    int        `json:"hand_count"`
	Hand         []CardView `json:"hand,omitempty"` // only for the viewer
	DeckCount    int        `json:"deck_count"`
	DiscardCount int        `json:"discard_count"`
	Played       []CardView `json:"played,omitempty"`

	Installations map[string]CardView `json:"installations,omitempty"`
	Gear          map[string]string   `json:"gear,omitempty"`
	Missions      int                 `json:"missions"`
	Trophies      []string            `json:"trophies,omitempty"`
}

// CardView is one card instance.
type CardView struct {
	ID     int    `json:"id"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	Cost   int    `json:"cost,omitempty"`
	Hazard bool   `json:"hazard,omitempty"`
}

// LocationView is one track slot.
type LocationView struct {
	Location int          `json:"location"`
	Zone     string       `json:"zone"`
	Mission  *MissionView `json:"mission,omitempty"`
	Players  []string     `json:"players,omitempty"`
}

// MissionView describes a mission; a face-down one shows only its id.
type MissionView struct {
	ID       int              `json:"id"`
	Revealed bool             `json:"revealed"`
	Name     string           `json:"name,omitempty"`
	Fame     int              `json:"fame,omitempty"`
	Requires *game.PowerState `json:"requires,omitempty"`
	Rewards  []string         `json:"rewards,omitempty"`
}

// StationView is one market station. Station numbers are 1-based.
type StationView struct {
	Station  int         `json:"station"`
	Tier     int         `json:"tier"`
	Location int         `json:"location"`
	Stacks   []StackView `json:"stacks"`
}

// StackView is one market stack; Top is set only once revealed.
type StackView struct {
	Index    int       `json:"index"`
	Revealed bool      `json:"revealed"`
	Count    int       `json:"count"`
	Top      *CardView `json:"top,omitempty"`
}

// PendingView describes the outstanding interrupt.
type PendingView struct {
	Kind       string     `json:"kind"`
	Player     string     `json:"player"`
	Source     string     `json:"source"`
	Amount     int        `json:"amount,omitempty"`
	Candidates []CardView `json:"candidates,omitempty"`
	Targets    []string   `json:"targets,omitempty"`
	Target     string     `json:"target,omitempty"`
	Options    []string   `json:"options,omitempty"`
}

// BuildStateView creates a StateView from the perspective of viewer. The
// last logTail log entries are included.
func BuildStateView(e *game.Engine, viewer string, logTail int) *StateView {
	gs := e.Export()
	cat := e.Catalog()

	sv := &StateView{
		GameID:     gs.GameID,
		Turn:       gs.Turn,
		Phase:      gs.Phase.String(),
		Current:    gs.Current().ID,
		You:        viewer,
		IsYourTurn: gs.Current().ID == viewer,
		CanUndo:    e.CanUndo(),
		Hazards:    len(gs.HazardDeck),
		GameOver:   gs.GameOver,
		Winner:     gs.Winner,
		Standings:  gs.Standings,
	}

	for _, p := range gs.Players {
		sv.Players = append(sv.Players, buildPlayerView(cat, p, p.ID == viewer))
	}

	for loc := 1; loc <= game.LocationCount; loc++ {
		lv := LocationView{Location: loc, Zone: game.ZoneOf(loc).String()}
		if mi := gs.MissionAt(loc); mi != nil {
			lv.Mission = missionView(cat, mi)
		}
		for _, p := range gs.Players {
			if p.Location == loc {
				lv.Players = append(lv.Players, p.ID)
			}
		}
		sv.Track = append(sv.Track, lv)
	}

	for i, st := range gs.Market.Stations {
		view := StationView{Station: i + 1, Tier: st.Tier, Location: st.Location}
		for j, stack := range st.Stacks {
			v := StackView{Index: j, Revealed: stack.Revealed, Count: len(stack.Cards)}
			if top := stack.Top(); top != nil && stack.Revealed {
				cv := cardView(cat, top)
				v.Top = &cv
			}
			view.Stacks = append(view.Stacks, v)
		}
		sv.Market = append(sv.Market, view)
	}

	if pa := gs.Pending; pa != nil {
		sv.Pending = pendingView(cat, gs, pa, viewer)
	}

	if logTail > 0 && len(gs.Log) > 0 {
		sv.Log = gs.Log[max(0, len(gs.Log)-logTail):]
	}
	return sv
}

func buildPlayerView(cat *game.Catalog, p *game.Player, isViewer bool) PlayerView {
	pv := PlayerView{
		ID:           p.ID,
		Name:         p.Name,
		Captain:      p.Captain.String(),
		Location:     p.Location,
		Fame:         p.Fame,
		Credits:      p.Credits,
		Hazards:      p.Hazards,
		Power:        p.Power,
		BasePower:    p.BasePower,
		Moves:        p.Turn.MovesRemaining,
		PlaysLeft:    p.PlaysLeft(),
		HandCount:    len(p.Hand),
		DeckCount:    len(p.Deck),
		DiscardCount: len(p.Discard),
		Missions:     len(p.Missions),
	}
	if isViewer {
		for _, c := range p.Hand {
			pv.Hand = append(pv.Hand, cardView(cat, c))
		}
	}
	for _, c := range p.Played {
		pv.Played = append(pv.Played, cardView(cat, c))
	}
	for _, s := range game.Systems {
		if c := p.Installations[s]; c != nil {
			if pv.Installations == nil {
				pv.Installations = make(map[string]CardView)
			}
			pv.Installations[s.String()] = cardView(cat, c)
		}
		if g := p.Gear[s]; g != nil {
			if pv.Gear == nil {
				pv.Gear = make(map[string]string)
			}
			pv.Gear[s.String()] = missionName(cat, g.Key)
		}
	}
	for _, t := range p.Trophies {
		pv.Trophies = append(pv.Trophies, missionName(cat, t.Key))
	}
	return pv
}

func cardView(cat *game.Catalog, c *game.CardInstance) CardView {
	cv := CardView{ID: c.ID, Key: c.Key, Name: c.Key}
	if card, ok := cat.Card(c.Key); ok {
		cv.Name = card.Name
		cv.Cost = card.Cost
		cv.Hazard = card.Kind == game.CardHazard
	}
	return cv
}

func missionView(cat *game.Catalog, mi *game.MissionInstance) *MissionView {
	mv := &MissionView{ID: mi.ID, Revealed: mi.Revealed}
	if !mi.Revealed {
		return mv
	}
	mv.Name = mi.Key
	if m, ok := cat.Mission(mi.Key); ok {
		mv.Name = m.Name
		mv.Fame = m.Fame
		req := m.Requires
		mv.Requires = &req
		for _, r := range m.Rewards {
			mv.Rewards = append(mv.Rewards, r.String())
		}
	}
	return mv
}

func missionName(cat *game.Catalog, key string) string {
	if m, ok := cat.Mission(key); ok {
		return m.Name
	}
	return key
}

// pendingView hides scout candidates from everyone but the deciding player.
func pendingView(cat *game.Catalog, gs *game.GameState, pa *game.PendingAction, viewer string) *PendingView {
	owner := gs.Players[pa.Player]
	pv := &PendingView{
		Kind:    pa.Kind.String(),
		Player:  owner.ID,
		Source:  pa.Source,
		Amount:  pa.Amount,
		Targets: pa.Targets,
		Target:  pa.Target,
	}
	for _, o := range pa.Options {
		pv.Options = append(pv.Options, o.String())
	}
	if pa.Kind == game.PendingScout && owner.ID != viewer {
		return pv
	}
	for _, id := range pa.Candidates {
		pv.Candidates = append(pv.Candidates, findCardView(cat, gs, id))
	}
	return pv
}

func findCardView(cat *game.Catalog, gs *game.GameState, id int) CardView {
	for _, p := range gs.Players {
		for _, pile := range [][]*game.CardInstance{p.Hand, p.Deck, p.Discard, p.Played} {
			for _, c := range pile {
				if c.ID == id {
					return cardView(cat, c)
				}
			}
		}
	}
	return CardView{ID: id, Name: "?"}
}
