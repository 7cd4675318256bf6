// Package resolver resolve especificações textuais host:port(:weight) em endpoints
// concretos, com um limite de lookups de DNS simultâneos.
//
// Visão geral (camadas):
//
//   - domain: tipos de valor, parser de host:port e contratos (sem I/O)
//   - application: casos de uso (portão de admissão, fan-out/fan-in, anúncio)
//   - infra: implementações concretas (semáforo FIFO, DNS, Redis, Prometheus)
//   - resolver (este pacote): fachada pública + adapters HTTP (handlers e middlewares)
//
// Fluxo da resolução ponderada:
//
//  1. texto -> ParseWeightedHostPorts -> triplas
//  2. cada tripla espera uma vaga no portão (FIFO, capacidade padrão 100)
//  3. o lookup roda fora da goroutine de quem chamou e devolve a vaga ao terminar
//  4. Gather junta os resultados na ordem de entrada; qualquer falha derruba o lote
//
// ToPublic é independente: troca 0.0.0.0 pelo endereço da máquina para anúncio.
//
// Variáveis de ambiente do binário resolverd (cmd/resolverd) controlam o comportamento,
// como RESOLVER_LOOKUP_CAPACITY, RESOLVER_LOOKUP_MODE e RESOLVER_RATE_RPS.
package resolver
