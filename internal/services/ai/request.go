package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// RequestType selects the prompt template and the expected response shape
type RequestType string

const (
	RequestGMNarration         RequestType = "gm_narration"
	RequestNPCAction           RequestType = "npc_action"
	RequestNPCBatch            RequestType = "npc_batch"
	RequestEnemyGeneration     RequestType = "enemy_generation"
	RequestCharacterGeneration RequestType = "character_generation"
)

// ExpectsBatch reports whether responses to t must be batch payloads
func (t RequestType) ExpectsBatch() bool {
	switch t {
	case RequestNPCBatch, RequestEnemyGeneration, RequestCharacterGeneration:
		return true
	}
	return false
}

// Request is the standardized request sent to the generation service
type Request struct {
	Type         RequestType
	SystemPrompt string
	Context      string
}

// PromptContext is the session context a prompt is built from
type PromptContext struct {
	Campaign     *entities.Campaign
	State        *entities.SessionState
	Location     *entities.Base
	Actor        *entities.Character
	Characters   []*entities.Character
	Enemies      []*entities.EnemyCharacter
	PlayerAction string
	Narration    string
	Instructions string
}

// NewRequest builds a request of type t from pc
func NewRequest(t RequestType, pc *PromptContext) (*Request, error) {
	contextDoc, err := BuildContext(pc)
	if err != nil {
		return nil, err
	}
	return &Request{
		Type:         t,
		SystemPrompt: BuildPrompt(t, pc),
		Context:      contextDoc,
	}, nil
}

const basePersona = `あなたはテーブルトークRPGのゲームマスターです。
プレイヤーの行動とセッションの状況をもとに、日本語で簡潔かつ臨場感のある描写を行ってください。
ルールや数値の判定はシステムが行うため、ダイスの結果やダメージ量を勝手に決めないでください。`

const narrationFormat = `出力は次のJSONオブジェクトのみとしてください:
{"response": "描写テキスト"}`

const npcActionFormat = `出力は次のJSONオブジェクトのみとしてください:
{"response": "キャラクターの行動描写", "action": "talk|move|attack|wait", "targetId": "攻撃対象の敵ID(攻撃時のみ)"}`

const npcBatchFormat = `出力は次のJSONオブジェクトのみとしてください:
{"batchResponse": true, "characters": [{"id": "キャラクターID", "response": "行動描写", "action": "talk|move|attack|wait", "targetId": "攻撃対象の敵ID(攻撃時のみ)"}]}
行動しないキャラクターは含めないでください。誰も行動しない場合は空の配列を返してください。`

const enemyFormat = `出力は次のJSONオブジェクトのみとしてください:
{"batchResponse": true, "characters": [{"name": "名前", "rank": "モブ|中ボス|ボス|EXボス", "type": "種別", "level": 1, "description": "説明"}]}`

const characterFormat = `出力は次のJSONオブジェクトのみとしてください:
{"batchResponse": true, "characters": [{"name": "名前", "role": "NPC", "description": "説明"}]}`

// BuildPrompt returns the system prompt for requestType
func BuildPrompt(requestType RequestType, pc *PromptContext) string {
	var b strings.Builder
	b.WriteString(basePersona)
	b.WriteString("\n\n")

	if pc != nil && pc.Campaign != nil {
		fmt.Fprintf(&b, "キャンペーン: %s (%s)\n", pc.Campaign.Title, pc.Campaign.GameSystem)
		if pc.Campaign.Synopsis != "" {
			fmt.Fprintf(&b, "あらすじ: %s\n", pc.Campaign.Synopsis)
		}
		b.WriteString("\n")
	}

	switch requestType {
	case RequestGMNarration:
		b.WriteString("プレイヤーキャラクターの行動の結果を描写してください。\n")
		b.WriteString(narrationFormat)
	case RequestNPCAction:
		name := ""
		if pc != nil && pc.Actor != nil {
			name = pc.Actor.Name
		}
		fmt.Fprintf(&b, "NPC「%s」としてこのターンの行動を1つ決めてください。\n", name)
		b.WriteString(npcActionFormat)
	case RequestNPCBatch:
		b.WriteString("コンテキストの npcs に含まれる各NPCについて、このターンの行動を決めてください。\n")
		b.WriteString(npcBatchFormat)
	case RequestEnemyGeneration:
		b.WriteString("キャンペーンに登場する敵キャラクターを作成してください。\n")
		b.WriteString(enemyFormat)
	case RequestCharacterGeneration:
		b.WriteString("キャンペーンに登場するキャラクターを作成してください。\n")
		b.WriteString(characterFormat)
	default:
		b.WriteString(narrationFormat)
	}

	if pc != nil && pc.Instructions != "" {
		b.WriteString("\n\n")
		b.WriteString(pc.Instructions)
	}
	return b.String()
}

type contextCharacter struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	HP            string   `json:"hp,omitempty"`
	StatusEffects []string `json:"statusEffects,omitempty"`
}

type contextEnemy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank"`
	HP   string `json:"hp"`
}

type contextDocument struct {
	Day          int                `json:"day,omitempty"`
	Turn         int                `json:"turn,omitempty"`
	Location     string             `json:"location,omitempty"`
	Actor        *contextCharacter  `json:"actor,omitempty"`
	PlayerAction string             `json:"playerAction,omitempty"`
	Narration    string             `json:"narration,omitempty"`
	Party        []contextCharacter `json:"party,omitempty"`
	NPCs         []contextCharacter `json:"npcs,omitempty"`
	Enemies      []contextEnemy     `json:"enemies,omitempty"`
	Recent       []string           `json:"recentTurns,omitempty"`
}

// recentTurns is how many recaps are fed back into prompts
const recentTurns = 3

// BuildContext renders pc as the JSON context document sent with a request
func BuildContext(pc *PromptContext) (string, error) {
	if pc == nil {
		return "{}", nil
	}

	doc := contextDocument{
		PlayerAction: pc.PlayerAction,
		Narration:    pc.Narration,
	}
	if pc.State != nil {
		doc.Day = pc.State.CurrentDay
		doc.Turn = pc.State.TurnNumber + 1
		history := pc.State.History
		if len(history) > recentTurns {
			history = history[len(history)-recentTurns:]
		}
		for _, h := range history {
			doc.Recent = append(doc.Recent, h.Summary)
		}
	}
	if pc.Location != nil {
		doc.Location = pc.Location.Name
	}
	if pc.Actor != nil {
		actor := toContextCharacter(pc.Actor)
		doc.Actor = &actor
	}
	for _, ch := range pc.Characters {
		if ch.IsAIControlled() {
			doc.NPCs = append(doc.NPCs, toContextCharacter(ch))
		} else {
			doc.Party = append(doc.Party, toContextCharacter(ch))
		}
	}
	for _, e := range pc.Enemies {
		doc.Enemies = append(doc.Enemies, contextEnemy{
			ID:   e.ID,
			Name: e.Name,
			Rank: string(e.Rank),
			HP:   fmt.Sprintf("%d/%d", e.Status.CurrentHP, e.DerivedStats.HP),
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to build ai context: %w", err)
	}
	return string(data), nil
}

func toContextCharacter(ch *entities.Character) contextCharacter {
	out := contextCharacter{
		ID:            ch.ID,
		Name:          ch.Name,
		Role:          string(ch.Role),
		StatusEffects: ch.Status.StatusEffects,
	}
	if ch.Stats.HP > 0 {
		out.HP = fmt.Sprintf("%d/%d", ch.Status.CurrentHP, ch.Stats.HP)
	}
	return out
}
