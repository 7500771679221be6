package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// клиент TON API (tonapi.io v2)
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(network Network, apiKey string) *Client {
	baseURL := TonAPIMainnet
	if network == NetworkTestnet {
		baseURL = TonAPITestnet
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AccountAddress - адрес аккаунта в ответе API
type AccountAddress struct {
	Address  string `json:"address"`
	IsScam   bool   `json:"is_scam"`
	IsWallet bool   `json:"is_wallet"`
}

// Transaction - транзакция в сети TON (формат tonapi.io v2)
type Transaction struct {
	Hash    string          `json:"hash"`
	Lt      int64           `json:"lt"`
	Account *AccountAddress `json:"account"`
	Utime   int64           `json:"utime"`
	Success bool            `json:"success"`
	InMsg   *Message        `json:"in_msg"`
}

// Message - сообщение в сети TON
type Message struct {
	MsgType     string          `json:"msg_type"`
	Value       int64           `json:"value"`
	Bounced     bool            `json:"bounced"`
	Source      *AccountAddress `json:"source"`
	DecodedBody *DecodedBody    `json:"decoded_body"`
}

// DecodedBody - декодированное тело сообщения, здесь лежит текстовый memo
type DecodedBody struct {
	Text string `json:"text"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

// GetTransactions возвращает входящие транзакции аккаунта новее afterLt
func (c *Client) GetTransactions(ctx context.Context, account string, afterLt int64, limit int) ([]Transaction, error) {
	reqURL := fmt.Sprintf("%s/blockchain/accounts/%s/transactions?limit=%d", c.baseURL, account, limit)
	if afterLt > 0 {
		reqURL += fmt.Sprintf("&after_lt=%d", afterLt)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ошибка API: %s - %s", resp.Status, string(body))
	}

	var out transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
