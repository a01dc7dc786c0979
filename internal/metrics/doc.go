// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的 fabric 指标采集能力，覆盖
熔断器、重试策略、降级模式、代理与消息代理五大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto.With
将指标注册到每个 Collector 私有的 Registry（通过 Registry() 暴露），
而非全局默认 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 向量指标，按 service/family 分组管理。

# 主要能力

  - 熔断器指标：当前状态 Gauge、连续失败计数 Gauge、状态迁移
    计数器，按 service 分组。
  - 重试指标：尝试次数计数器、计算出的休眠时长 Histogram、
    最终结果计数器（success/failure/circuit_open）。
  - 降级模式指标：激活次数计数器，按 service 与策略分组。
  - 代理指标：调用耗时 Histogram、存活状态 Gauge，按
    family/operation 分组。
  - 消息代理指标：发布/接收计数器，按 channel 与结果分组。
*/
package metrics
