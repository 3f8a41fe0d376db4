package models

import "encoding/json"

// Delegation describes where an NFT instance is delegated
type Delegation struct {
	Account      string `json:"account"`
	OwnedBy      string `json:"ownedBy"`
	UndelegateAt int64  `json:"undelegateAt,omitempty"`
}

// Instance is one issued NFT, a row of the <SYMBOL>instances table
type Instance struct {
	ID              json.Number       `json:"_id"`
	Account         string            `json:"account"`
	OwnedBy         string            `json:"ownedBy"`
	PreviousAccount string            `json:"previousAccount,omitempty"`
	PreviousOwnedBy string            `json:"previousOwnedBy,omitempty"`
	LockedTokens    map[string]string `json:"lockedTokens"`
	Properties      map[string]any    `json:"properties"`
	DelegatedTo     *Delegation       `json:"delegatedTo,omitempty"`
}

// NftOrder is a row of the nftmarket <SYMBOL>sellBook table
type NftOrder struct {
	ID          json.Number       `json:"_id"`
	Account     string            `json:"account"`
	OwnedBy     string            `json:"ownedBy"`
	NftID       string            `json:"nftId"`
	Grouping    map[string]string `json:"grouping,omitempty"`
	Timestamp   int64             `json:"timestamp"`
	Price       string            `json:"price"`
	PriceDec    json.RawMessage   `json:"priceDec,omitempty"`
	PriceSymbol string            `json:"priceSymbol"`
	Fee         int               `json:"fee"`
}

// NftOpenInterest is a row of the nftmarket <SYMBOL>openInterest table
type NftOpenInterest struct {
	ID          json.Number       `json:"_id,omitempty"`
	Side        string            `json:"side"`
	PriceSymbol string            `json:"priceSymbol"`
	Grouping    map[string]string `json:"grouping"`
	Count       int64             `json:"count"`
}

// NftTrade is a row of the nftmarket <SYMBOL>tradesHistory table
type NftTrade struct {
	ID             json.Number     `json:"_id,omitempty"`
	Type           string          `json:"type"`
	Account        string          `json:"account"`
	Counterparties json.RawMessage `json:"counterparties,omitempty"`
	PriceSymbol    string          `json:"priceSymbol"`
	Price          string          `json:"price"`
	Timestamp      int64           `json:"timestamp"`
}
