package agentpay

import "fmt"

// TokenInfo describes a stablecoin deployment on one chain.
type TokenInfo struct {
	// Address is the token contract address on the chain.
	Address string
	// Decimals is the token's on-chain decimal precision.
	Decimals uint8
}

// tokenTable maps chain -> token -> deployment. Contract addresses are the
// canonical mainnet deployments.
var tokenTable = map[Chain]map[Token]TokenInfo{
	ChainEthereum: {
		TokenUSDC: {Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
		TokenUSDT: {Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
		TokenDAI:  {Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
	},
	ChainBase: {
		TokenUSDC: {Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
		TokenUSDT: {Address: "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2", Decimals: 6},
		TokenDAI:  {Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", Decimals: 18},
	},
	ChainPolygon: {
		TokenUSDC: {Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
		TokenUSDT: {Address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", Decimals: 6},
		TokenDAI:  {Address: "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063", Decimals: 18},
	},
	ChainArbitrum: {
		TokenUSDC: {Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Decimals: 6},
		TokenUSDT: {Address: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", Decimals: 6},
		TokenDAI:  {Address: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", Decimals: 18},
	},
}

// SupportedChains lists the chains the gateway settles on.
func SupportedChains() []Chain {
	return []Chain{ChainEthereum, ChainBase, ChainPolygon, ChainArbitrum}
}

// SupportedTokens lists the stablecoins the gateway accepts.
func SupportedTokens() []Token {
	return []Token{TokenUSDC, TokenUSDT, TokenDAI}
}

// LookupToken resolves a stablecoin deployment for a chain.
func LookupToken(chain Chain, token Token) (TokenInfo, error) {
	tokens, ok := tokenTable[chain]
	if !ok {
		return TokenInfo{}, fmt.Errorf("agentpay: unsupported chain %q", chain)
	}
	info, ok := tokens[token]
	if !ok {
		return TokenInfo{}, fmt.Errorf("agentpay: token %q not available on %q", token, chain)
	}
	return info, nil
}
