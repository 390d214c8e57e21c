// Package application monta as camadas de admissão sobre os contratos de domain.
//
// Limiter junta um contador de janela e os tetos por tier; várias instâncias
// (global, por rota) se compõem em sequência. ConcurrencyService ocupa vagas
// de geração com timeout opcional. Nada aqui conhece net/http.
package application
