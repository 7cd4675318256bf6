// Package domain define os tipos de valor e os contratos da resolução de endpoints.
//
// Este pacote não depende de net/http, de DNS real nem de implementações concretas.
// Contém também o parser de especificações "host:port", que é puro (sem I/O).
package domain
