package whirlpool

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Whirlpool (Orca) program IDs
const (
	// WHIRLPOOL_PROGRAM_ID is the Orca Whirlpool CLMM program
	WHIRLPOOL_PROGRAM_ID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

	// WHIRLPOOL_CPI_PROGRAM_ID is the launchpad program that graduates tokens through CPI
	WHIRLPOOL_CPI_PROGRAM_ID = "23WKGEsTRVZiVuwg8eyXByPq2xkzTR8v6TW4V1WiT89g"

	// Canonical WhirlpoolsConfig accounts
	MAINNET_WHIRLPOOLS_CONFIG = "2LecshUwdy9xi7meFgHtFJQNSKk4KdTrcpvaB56dP2NQ"
	DEVNET_WHIRLPOOLS_CONFIG  = "FcrweFY1G9HJAHG5inkGB6pKg1HZ6x9UC2WioAfWrGkR"

	// METADATA_UPDATE_AUTH is the update authority of position NFT metadata
	METADATA_UPDATE_AUTH = "3axbTs2z5GBy6usVbNVoqEgZMng3vZvMnAoX29BFfwhr"

	TOKEN_PROGRAM_ID            = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TOKEN_2022_PROGRAM_ID       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	ASSOCIATED_TOKEN_PROGRAM_ID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	MEMO_PROGRAM_ID             = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
)

var (
	WhirlpoolProgramID       = solana.MustPublicKeyFromBase58(WHIRLPOOL_PROGRAM_ID)
	WhirlpoolCPIProgramID    = solana.MustPublicKeyFromBase58(WHIRLPOOL_CPI_PROGRAM_ID)
	MainnetWhirlpoolsConfig  = solana.MustPublicKeyFromBase58(MAINNET_WHIRLPOOLS_CONFIG)
	DevnetWhirlpoolsConfig   = solana.MustPublicKeyFromBase58(DEVNET_WHIRLPOOLS_CONFIG)
	MetadataUpdateAuth       = solana.MustPublicKeyFromBase58(METADATA_UPDATE_AUTH)
	TokenProgramID           = solana.MustPublicKeyFromBase58(TOKEN_PROGRAM_ID)
	Token2022ProgramID       = solana.MustPublicKeyFromBase58(TOKEN_2022_PROGRAM_ID)
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58(ASSOCIATED_TOKEN_PROGRAM_ID)
	MemoProgramID            = solana.MustPublicKeyFromBase58(MEMO_PROGRAM_ID)
)

// Whirlpool account
const (
	WHIRLPOOL_ACCOUNT_NAME = "Whirlpool"
	WHIRLPOOL_ACCOUNT_SIZE = 653
)

// PDA seeds
const (
	SEED_WHIRLPOOL      = "whirlpool"
	SEED_FEE_TIER       = "fee_tier"
	SEED_TOKEN_BADGE    = "token_badge"
	SEED_TICK_ARRAY     = "tick_array"
	SEED_POSITION       = "position"
	SEED_LOCK_CONFIG    = "lock_config"
	SEED_POSITION_OWNER = "position_owner"
)

// Tick constants
const (
	TICK_ARRAY_SIZE = 88
	MIN_TICK        = -443636
	MAX_TICK        = 443636

	// SPLASH_POOL_TICK_SPACING is the tick spacing of full-range splash pools
	SPLASH_POOL_TICK_SPACING = 32896
)

// Sqrt price bounds (Q64.64) and the encoding of price 1
var (
	MinSqrtPrice, _ = new(big.Int).SetString("4295048016", 10)
	MaxSqrtPrice, _ = new(big.Int).SetString("79226673515401279992447579055", 10)
	Q64             = new(big.Int).Lsh(big.NewInt(1), 64)
	Q128            = new(big.Int).Lsh(big.NewInt(1), 128)
	MaxU128         = new(big.Int).Sub(Q128, big.NewInt(1))
	MaxU64          = new(big.Int).SetUint64(^uint64(0))
)
