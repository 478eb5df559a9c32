package model

import "encoding/json"

// ItemType enumerates every renderable unit inside a module. Gating rules and
// completion signals dispatch on this type, so adding a kind of content is a
// single enumerable change.
type ItemType string

const (
	ItemVideo     ItemType = "video"
	ItemAudio     ItemType = "audio"
	ItemImage     ItemType = "image"
	ItemPDF       ItemType = "pdf"
	ItemGenially  ItemType = "genially"
	ItemScorm     ItemType = "scorm"
	ItemQuiz      ItemType = "quiz"
	ItemSignature ItemType = "signature"
	ItemText      ItemType = "text"
	ItemHeader    ItemType = "header"
	ItemSurvey    ItemType = "survey"
)

// swagger:model Item
type Item struct {
	BaseModel
	ModuleID   uint            `gorm:"index;type:bigint unsigned" json:"moduleId"`
	Type       ItemType        `gorm:"size:20;not null" json:"type"`
	Title      string          `gorm:"size:255" json:"title"`
	Payload    json.RawMessage `gorm:"type:json" json:"payload,omitempty"` // type-specific content
	OrderIndex int             `gorm:"default:0" json:"orderIndex"`
}

func (Item) TableName() string {
	return "module_items"
}

// IsPassive reports whether viewing the item is enough; passive items never
// block advancement.
func (i *Item) IsPassive() bool {
	switch i.Type {
	case ItemText, ItemImage, ItemPDF, ItemHeader:
		return true
	}
	return false
}

// Blocks reports whether the item must be completed before the learner may
// leave its module. Surveys block only when their payload marks them mandatory.
func (i *Item) Blocks() bool {
	if i.IsPassive() {
		return false
	}
	if i.Type == ItemSurvey {
		return i.SurveyPayload().IsMandatory
	}
	return true
}

// MediaPayload is the content of video/audio/image/pdf/genially/scorm items.
type MediaPayload struct {
	URL      string `json:"url"`
	Duration int    `json:"duration,omitempty"` // seconds, media only
}

// QuizItemPayload is the content of quiz items.
type QuizItemPayload struct {
	Questions []Question `json:"questions"`
}

// SurveyItemPayload is the content of survey items.
type SurveyItemPayload struct {
	IsMandatory bool     `json:"isMandatory"`
	Fields      []string `json:"fields,omitempty"`
}

func (i *Item) MediaPayload() MediaPayload {
	var p MediaPayload
	if len(i.Payload) > 0 {
		_ = json.Unmarshal(i.Payload, &p)
	}
	return p
}

func (i *Item) QuizPayload() QuizItemPayload {
	var p QuizItemPayload
	if len(i.Payload) > 0 {
		_ = json.Unmarshal(i.Payload, &p)
	}
	return p
}

func (i *Item) SurveyPayload() SurveyItemPayload {
	var p SurveyItemPayload
	if len(i.Payload) > 0 {
		_ = json.Unmarshal(i.Payload, &p)
	}
	return p
}
