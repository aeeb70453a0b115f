package kalshi

// marketsResponse es la respuesta de GET /markets.
type marketsResponse struct {
	Markets []apiMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

// marketResponse es la respuesta de GET /markets/{ticker}.
type marketResponse struct {
	Market apiMarket `json:"market"`
}

// apiMarket es un mercado tal como lo devuelve Kalshi. Los precios llegan en
// centavos (enteros) y, en cuentas nuevas, también como strings en dólares.
type apiMarket struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	YesSubTitle    string `json:"yes_sub_title"`
	Status         string `json:"status"`
	RulesPrimary   string `json:"rules_primary"`
	RulesSecondary string `json:"rules_secondary"`
	YesBid         int    `json:"yes_bid"`
	YesBidDollars  string `json:"yes_bid_dollars"`
}

// orderbookResponse es la respuesta de GET /markets/{ticker}/orderbook.
type orderbookResponse struct {
	Orderbook apiOrderbook `json:"orderbook"`
}

// apiOrderbook trae niveles [precio, cantidad] ordenados por precio ascendente:
// el mejor bid es el último nivel.
type apiOrderbook struct {
	Yes        [][]int    `json:"yes"`
	YesDollars [][]string `json:"yes_dollars"`
}

// balanceResponse es la respuesta de GET /portfolio/balance (centavos).
type balanceResponse struct {
	Balance int64 `json:"balance"`
}

// createOrderRequest es el body de POST /portfolio/orders.
type createOrderRequest struct {
	Ticker        string `json:"ticker"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
	YesPrice      int    `json:"yes_price"`
	TimeInForce   string `json:"time_in_force,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// createOrderResponse es la respuesta de POST /portfolio/orders.
type createOrderResponse struct {
	Order struct {
		OrderID       string `json:"order_id"`
		ClientOrderID string `json:"client_order_id"`
		Status        string `json:"status"`
	} `json:"order"`
}
