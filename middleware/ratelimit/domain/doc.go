// Package domain define contratos e tipos de domínio para rate limit e concorrência:
// chave do cliente, tiers, janela fixa de 60s, decisão e estatísticas.
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
