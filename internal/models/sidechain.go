package models

// Block is a sidechain block as returned by getBlockInfo
type Block struct {
	BlockNumber          int64         `json:"blockNumber"`
	RefHiveBlockNumber   int64         `json:"refHiveBlockNumber"`
	RefHiveBlockID       string        `json:"refHiveBlockId"`
	PrevRefHiveBlockID   string        `json:"prevRefHiveBlockId"`
	PreviousHash         string        `json:"previousHash"`
	PreviousDatabaseHash string        `json:"previousDatabaseHash"`
	Timestamp            string        `json:"timestamp"`
	Transactions         []Transaction `json:"transactions"`
	VirtualTransactions  []Transaction `json:"virtualTransactions"`
	Hash                 string        `json:"hash"`
	DatabaseHash         string        `json:"databaseHash"`
	MerkleRoot           string        `json:"merkleRoot"`
	Round                int64         `json:"round,omitempty"`
	RoundHash            string        `json:"roundHash,omitempty"`
	Witness              string        `json:"witness,omitempty"`
	SigningKey           string        `json:"signingKey,omitempty"`
	RoundSignature       string        `json:"roundSignature,omitempty"`
}

// Transaction is a contract call executed inside a block. Payload and Logs
// are JSON documents encoded as strings by the node.
type Transaction struct {
	RefHiveBlockNumber int64  `json:"refHiveBlockNumber"`
	TransactionID      string `json:"transactionId"`
	Sender             string `json:"sender"`
	Contract           string `json:"contract"`
	Action             string `json:"action"`
	Payload            string `json:"payload"`
	ExecutedCodeHash   string `json:"executedCodeHash"`
	Hash               string `json:"hash"`
	DatabaseHash       string `json:"databaseHash"`
	Logs               string `json:"logs"`
}

// Status is the node status returned by getStatus
type Status struct {
	LastBlockNumber             int64  `json:"lastBlockNumber"`
	LastBlockRefHiveBlockNumber int64  `json:"lastBlockRefHiveBlockNumber"`
	LastHash                    string `json:"lastHash"`
	LastParsedHiveBlockNumber   int64  `json:"lastParsedHiveBlockNumber"`
	SSCNodeVersion              string `json:"SSCnodeVersion"`
	ChainID                     string `json:"chainId"`
	LightNode                   bool   `json:"lightNode,omitempty"`
}
