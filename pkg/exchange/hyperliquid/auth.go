package hyperliquid

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	mathhex "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ABI type strings for the hashed action payloads.
const (
	OrderTupleType     = "(uint32,bool,uint64,uint64,bool,uint8,uint64)[]"
	GroupingType       = "uint8"
	CancelTupleType    = "(uint32,uint64)[]"
	vaultAddressType   = "address"
	nonceType          = "uint64"
	phantomAgentSource = "a"
)

const (
	agentChainID    = 1337
	transferChainID = 42161

	verifyingContractHex = "0x0000000000000000000000000000000000000000"
)

// Signer produces a raw 65-byte ECDSA signature, hex encoded with a 0x prefix,
// over a 32-byte digest.
type Signer interface {
	SignHash(digest []byte) (string, error)
	GetAddress() string
}

// PrivateKeySigner signs payloads using an ECDSA private key.
type PrivateKeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// NewPrivateKeySigner constructs a signer from a hex-encoded private key string.
func NewPrivateKeySigner(privateKeyHex string) (*PrivateKeySigner, error) {
	keyHex := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if keyHex == "" {
		return nil, fmt.Errorf("hyperliquid: empty private key")
	}

	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: decode private key: %w", err)
	}
	address := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	return &PrivateKeySigner{
		privateKey: key,
		address:    address,
	}, nil
}

// SignHash produces a raw signature for the provided digest.
func (s *PrivateKeySigner) SignHash(digest []byte) (string, error) {
	if s == nil || s.privateKey == nil {
		return "", errors.New("hyperliquid: signer not initialised")
	}
	if len(digest) != 32 {
		return "", fmt.Errorf("hyperliquid: expected 32-byte message hash, got %d bytes", len(digest))
	}
	sigBytes, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("hyperliquid: sign message: %w", err)
	}
	return "0x" + hex.EncodeToString(sigBytes), nil
}

// GetAddress returns the signer wallet address.
func (s *PrivateKeySigner) GetAddress() string {
	if s == nil {
		return ""
	}
	return s.address
}

// PhantomAgent is the typed-data message signed for L1 actions.
type PhantomAgent struct {
	Source       string
	ConnectionID []byte
}

// ConstructPhantomAgent ABI-encodes data under types and hashes the result
// into the agent's connection id.
func ConstructPhantomAgent(types []string, data []any) (PhantomAgent, error) {
	if len(types) != len(data) {
		return PhantomAgent{}, fmt.Errorf("hyperliquid: %d abi types for %d values", len(types), len(data))
	}
	args := make(abi.Arguments, 0, len(types))
	for _, typ := range types {
		t, err := parseABIType(typ)
		if err != nil {
			return PhantomAgent{}, err
		}
		args = append(args, abi.Argument{Type: t})
	}
	encoded, err := args.Pack(data...)
	if err != nil {
		return PhantomAgent{}, fmt.Errorf("hyperliquid: abi encode action: %w", err)
	}
	return PhantomAgent{
		Source:       phantomAgentSource,
		ConnectionID: crypto.Keccak256(encoded),
	}, nil
}

// parseABIType accepts elementary types and flat tuple types such as
// "(uint32,uint64)[]". Tuple components are named f0..fN.
func parseABIType(typ string) (abi.Type, error) {
	typ = strings.TrimSpace(typ)
	if !strings.HasPrefix(typ, "(") {
		t, err := abi.NewType(typ, "", nil)
		if err != nil {
			return abi.Type{}, fmt.Errorf("hyperliquid: abi type %q: %w", typ, err)
		}
		return t, nil
	}
	end := strings.Index(typ, ")")
	if end < 0 || strings.Contains(typ[1:end], "(") {
		return abi.Type{}, fmt.Errorf("hyperliquid: unsupported abi tuple %q", typ)
	}
	fields := strings.Split(typ[1:end], ",")
	components := make([]abi.ArgumentMarshaling, len(fields))
	for i, field := range fields {
		components[i] = abi.ArgumentMarshaling{
			Name: fmt.Sprintf("f%d", i),
			Type: strings.TrimSpace(field),
		}
	}
	t, err := abi.NewType("tuple"+typ[end+1:], "", components)
	if err != nil {
		return abi.Type{}, fmt.Errorf("hyperliquid: abi type %q: %w", typ, err)
	}
	return t, nil
}

// SignL1Action appends the vault address (zero when empty) and nonce to the
// payload, derives the phantom agent and signs it under the Exchange domain.
// The caller's slices are not modified.
func SignL1Action(signer Signer, types []string, data []any, vaultAddress string, nonce uint64) (Signature, error) {
	if signer == nil {
		return Signature{}, errors.New("hyperliquid: signer required")
	}
	vault := common.Address{}
	if vaultAddress != "" {
		if !common.IsHexAddress(vaultAddress) {
			return Signature{}, fmt.Errorf("hyperliquid: invalid vault address %q", vaultAddress)
		}
		vault = common.HexToAddress(vaultAddress)
	}

	allTypes := make([]string, 0, len(types)+2)
	allTypes = append(allTypes, types...)
	allTypes = append(allTypes, vaultAddressType, nonceType)
	allData := make([]any, 0, len(data)+2)
	allData = append(allData, data...)
	allData = append(allData, vault, nonce)

	agent, err := ConstructPhantomAgent(allTypes, allData)
	if err != nil {
		return Signature{}, err
	}
	digest, err := typedDataHash(agentTypedData(agent))
	if err != nil {
		return Signature{}, err
	}
	return signDigest(signer, digest)
}

// SignUsdTransferAction signs a transfer payload directly, without a phantom agent.
func SignUsdTransferAction(signer Signer, payload UsdTransferPayload) (Signature, error) {
	if signer == nil {
		return Signature{}, errors.New("hyperliquid: signer required")
	}
	digest, err := typedDataHash(usdTransferTypedData(payload))
	if err != nil {
		return Signature{}, err
	}
	return signDigest(signer, digest)
}

func signDigest(signer Signer, digest []byte) (Signature, error) {
	raw, err := signer.SignHash(digest)
	if err != nil {
		return Signature{}, err
	}
	return DecodeSignature(raw)
}

// DecodeSignature splits a 0x-prefixed 65-byte hex signature into r, s and a
// v normalised to 27 or 28.
func DecodeSignature(raw string) (Signature, error) {
	body := strings.TrimPrefix(raw, "0x")
	if len(body) != 130 {
		return Signature{}, fmt.Errorf("%w: length %d", ErrBadSignature, len(body))
	}
	var v int
	switch strings.ToLower(body[128:]) {
	case "1b", "00":
		v = 27
	case "1c", "01":
		v = 28
	default:
		return Signature{}, fmt.Errorf("%w: v %s", ErrBadSignature, body[128:])
	}
	return Signature{
		R: "0x" + body[:64],
		S: "0x" + body[64:128],
		V: v,
	}, nil
}

func exchangeDomain(chainID int64) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              "Exchange",
		Version:           "1",
		ChainId:           mathhex.NewHexOrDecimal256(chainID),
		VerifyingContract: verifyingContractHex,
	}
}

var domainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

func agentTypedData(agent PhantomAgent) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			"Agent": {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain:      exchangeDomain(agentChainID),
		Message: map[string]interface{}{
			"source":       agent.Source,
			"connectionId": agent.ConnectionID,
		},
	}
}

func usdTransferTypedData(payload UsdTransferPayload) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			"UsdTransferSignPayload": {
				{Name: "destination", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "time", Type: "uint64"},
			},
		},
		PrimaryType: "UsdTransferSignPayload",
		Domain:      exchangeDomain(transferChainID),
		Message: map[string]interface{}{
			"destination": payload.Destination,
			"amount":      payload.Amount,
			"time":        new(big.Int).SetUint64(payload.Time),
		},
	}
}

func typedDataHash(td apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: hash domain: %w", err)
	}
	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: hash primary type: %w", err)
	}
	raw := make([]byte, 0, 2+len(domainSeparator)+len(messageHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, messageHash...)
	return crypto.Keccak256(raw), nil
}
