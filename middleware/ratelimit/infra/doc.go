// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: contador de janela fixa por chave, com janitor
//   - ChanPool: semáforo simples para limite de gerações simultâneas
//   - MemoryStatsStore, RedisStatsStore, PrometheusStatsStore: estatísticas de admissão
package infra
