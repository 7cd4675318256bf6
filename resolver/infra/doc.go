// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Gate: portão de admissão FIFO (golang.org/x/sync/semaphore)
//   - SystemLookup / DNSLookup: resolução via net.Resolver ou github.com/miekg/dns
//   - HostnameLocalHost / InterfaceLocalHost: identidade da máquina local
//   - Store: token bucket por cliente usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore / Metrics: estatísticas de resolução
package infra
