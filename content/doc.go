// Package content implementa o pipeline de geração: validação do pedido,
// montagem do prompt, chamada ao backend e persistência do resultado.
package content
