// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: janela, tiers, decisão e contratos (sem dependência de net/http)
//   - application: camadas de admissão (Limiter) e acquire com timeout
//   - infra: tabela de janelas em memória, stores de estatística, semáforo
//   - ratelimit (este pacote): middlewares HTTP, extração de chave/tier e tradução para status/headers
//
// Fluxo por camada:
//
//   1) Extrai a chave do cliente (<ip>-<user agent>) e o tier
//   2) Chama Limiter.Admit e registra a decisão (stats + telemetria no contexto)
//   3) Se bloqueado, responde 429 com Retry-After e {error, retryAfter}
//   4) Se permitido, chama o próximo handler (a próxima camada ou a rota)
//
// Camadas se compõem por encadeamento: a global envolve tudo, a por tier só a rota de geração.
// Uma request rejeitada por uma camada externa nunca chega a ser contada pelas internas.
package ratelimit
