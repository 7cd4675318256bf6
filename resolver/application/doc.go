// Package application contém os casos de uso da resolução de endpoints.
//
// Ele depende apenas do pacote domain e não conhece net/http nem DNS real.
// Ex.: Service.ResolveWeightedHostPorts faz o fan-out sob o portão de admissão
// e o fan-in (Gather) preservando a ordem de entrada.
package application
