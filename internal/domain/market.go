package domain

import "time"

// Quote is a resolved current price together with the source that produced it.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// Ticker24h is a centralized exchange's rolling 24-hour statistics for a spot
// pair, kept in the exchange's own shape. Numeric fields arrive as strings.
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	WeightedAvgPrice   string `json:"weightedAvgPrice"`
	PrevClosePrice     string `json:"prevClosePrice"`
	LastPrice          string `json:"lastPrice"`
	LastQty            string `json:"lastQty"`
	BidPrice           string `json:"bidPrice"`
	BidQty             string `json:"bidQty"`
	AskPrice           string `json:"askPrice"`
	AskQty             string `json:"askQty"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	OpenTime           int64  `json:"openTime"`
	CloseTime          int64  `json:"closeTime"`
	FirstID            int64  `json:"firstId"`
	LastID             int64  `json:"lastId"`
	Count              int64  `json:"count"`
}

// DexToken identifies one side of a decentralized-exchange pair.
type DexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TxnCount is the buy/sell transaction count over a window.
type TxnCount struct {
	Buys  int64 `json:"buys"`
	Sells int64 `json:"sells"`
}

// DexTxns holds transaction counts per window.
type DexTxns struct {
	M5  TxnCount `json:"m5"`
	H1  TxnCount `json:"h1"`
	H6  TxnCount `json:"h6"`
	H24 TxnCount `json:"h24"`
}

// DexWindows holds a metric per rolling window.
type DexWindows struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// DexLiquidity is the pool liquidity of a pair.
type DexLiquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// DexLink is a labelled website or social link.
type DexLink struct {
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
	URL   string `json:"url"`
}

// DexInfo is optional pair metadata.
type DexInfo struct {
	ImageURL  string    `json:"imageUrl,omitempty"`
	Header    string    `json:"header,omitempty"`
	OpenGraph string    `json:"openGraph,omitempty"`
	Websites  []DexLink `json:"websites,omitempty"`
	Socials   []DexLink `json:"socials,omitempty"`
}

// DexPair is a decentralized-exchange aggregator's snapshot of one trading
// pair, kept in the aggregator's own shape.
type DexPair struct {
	ChainID       string        `json:"chainId"`
	DexID         string        `json:"dexId"`
	URL           string        `json:"url"`
	PairAddress   string        `json:"pairAddress"`
	Labels        []string      `json:"labels,omitempty"`
	BaseToken     DexToken      `json:"baseToken"`
	QuoteToken    DexToken      `json:"quoteToken"`
	PriceNative   string        `json:"priceNative"`
	PriceUSD      string        `json:"priceUsd"`
	Txns          DexTxns       `json:"txns"`
	Volume        DexWindows    `json:"volume"`
	PriceChange   DexWindows    `json:"priceChange"`
	Liquidity     *DexLiquidity `json:"liquidity,omitempty"`
	FDV           *float64      `json:"fdv,omitempty"`
	MarketCap     *float64      `json:"marketCap,omitempty"`
	PairCreatedAt int64         `json:"pairCreatedAt"`
	Info          *DexInfo      `json:"info,omitempty"`
}

// TokenSnapshot merges the market data gathered for one symbol. Each part is
// nil when its source failed.
type TokenSnapshot struct {
	Symbol    string     `json:"symbol"`
	SpotPrice *float64   `json:"spot_price"`
	Ticker24h *Ticker24h `json:"ticker_24h"`
	DexPair   *DexPair   `json:"dex_pair"`
}

// HasData reports whether either price-bearing part resolved. A snapshot
// holding only 24h statistics is treated as empty.
func (s TokenSnapshot) HasData() bool {
	return s.SpotPrice != nil || s.DexPair != nil
}
